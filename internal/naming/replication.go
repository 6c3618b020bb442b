package naming

import "github.com/cubbit/dnfs/internal/path"

// ReplicationPolicy fills the extension point left explicitly under-specified
// by §4.6 and §9: "the replication routine itself is intentionally
// under-specified; a correct minimal implementation is a no-op." It is
// invoked outside the lock manager's mutex by the lock manager's
// ReplicationTrigger callback, once per positive multiple-of-20 access
// count on a path.
type ReplicationPolicy interface {
	Replicate(svc *Service, p path.Path)
}

// NoopPolicy is the spec-mandated minimal implementation: it does nothing.
type NoopPolicy struct{}

// Replicate satisfies ReplicationPolicy by doing nothing.
func (NoopPolicy) Replicate(*Service, path.Path) {}

// RoundRobinPolicy is a supplemental, concrete replication policy: under an
// exclusive lock on p, it picks the first registered (storage, command)
// pair not already holding p, instructs it to copy from an existing
// replica, and on success records it as a new replica.
type RoundRobinPolicy struct{}

// Replicate implements ReplicationPolicy.
func (RoundRobinPolicy) Replicate(svc *Service, p path.Path) {
	if err := svc.locks.Lock(p, true); err != nil {
		return
	}
	defer svc.locks.Unlock(p, true)

	replicas := svc.index.Replicas(p)
	if len(replicas) == 0 {
		return
	}
	held := make(map[string]struct{}, len(replicas))
	for _, r := range replicas {
		held[r.String()] = struct{}{}
	}
	source := replicas[0]

	for _, candidate := range svc.index.AllEndpoints() {
		if _, already := held[candidate.Storage.String()]; already {
			continue
		}

		copied, err := svc.caller.Copy(candidate.Command, p, source)
		if err != nil || !copied {
			continue
		}

		svc.index.AddReplica(p, candidate.Storage, candidate.Command)
		if svc.metrics != nil {
			svc.metrics.RecordReplicationSucceeded()
		}
		return
	}
}
