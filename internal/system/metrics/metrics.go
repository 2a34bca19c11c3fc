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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	IdentifyRequests prometheus.Counter
	ContactsCreated  prometheus.Counter
	GroupsMerged     prometheus.Counter
	IdentifyFailures prometheus.Counter
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the singleton metrics set, registering the collectors on first use.
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			IdentifyRequests: promauto.NewCounter(prometheus.CounterOpts{
				Name: "icr_identify_requests_total",
				Help: "Total number of identify requests received",
			}),
			ContactsCreated: promauto.NewCounter(prometheus.CounterOpts{
				Name: "icr_contacts_created_total",
				Help: "Total number of contact rows created",
			}),
			GroupsMerged: promauto.NewCounter(prometheus.CounterOpts{
				Name: "icr_identity_groups_merged_total",
				Help: "Total number of identity group merge events",
			}),
			IdentifyFailures: promauto.NewCounter(prometheus.CounterOpts{
				Name: "icr_identify_failures_total",
				Help: "Total number of identify requests that returned an error",
			}),
		}
	})
	return instance
}
