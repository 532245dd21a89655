// Package metrics はアプリケーション全体の Prometheus メトリクスを管理します。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics はアプリケーションが公開する Prometheus メトリクスをまとめます。
type Metrics struct {
	PartiesCreated       prometheus.Counter
	RolesAssigned        prometheus.Counter
	RolesExpired         prometheus.Counter
	RelationshipsCreated prometheus.Counter
}

// New はメトリクスを生成しデフォルトレジストリに登録します。
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith は指定したレジストリにメトリクスを登録します。テストから利用します。
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PartiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "party_service_parties_created_total",
			Help: "Total number of parties created in the system",
		}),
		RolesAssigned: factory.NewCounter(prometheus.CounterOpts{
			Name: "party_service_roles_assigned_total",
			Help: "Total number of party roles assigned",
		}),
		RolesExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "party_service_roles_expired_total",
			Help: "Total number of party roles expired",
		}),
		RelationshipsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "party_service_relationships_created_total",
			Help: "Total number of party relationships created",
		}),
	}
}
