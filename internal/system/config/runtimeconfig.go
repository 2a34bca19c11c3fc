/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package config

import "sync"

// ICRRuntime holds the runtime configuration for the contact resolution server.
type ICRRuntime struct {
	ICRHome string `yaml:"icr_home"`
	Config  Config `yaml:"config"`
}

var (
	runtimeConfig *ICRRuntime
	once          sync.Once
)

// InitializeICRRuntime initializes the ICRRuntime configuration.
func InitializeICRRuntime(icrHome string, config *Config) error {

	once.Do(func() {
		runtimeConfig = &ICRRuntime{
			ICRHome: icrHome,
			Config:  *config,
		}
	})

	return nil
}

// GetICRRuntime returns the ICRRuntime configuration.
func GetICRRuntime() *ICRRuntime {

	if runtimeConfig == nil {
		panic("ICRRuntime is not initialized")
	}
	return runtimeConfig
}

// OverrideICRRuntime replaces the runtime configuration. Used by tests.
func OverrideICRRuntime(conf Config) {
	runtimeConfig = &ICRRuntime{
		Config: conf,
	}
}
