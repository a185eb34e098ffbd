// internal/infra/etcd/roster_publisher.go
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"kitchen-dispatch/internal/domain"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// RosterPrefix is the etcd prefix under which on-duty staff are announced.
	RosterPrefix = "/kitchen/staff/"
)

// NewClient connects to etcd.
func NewClient(endpoints []string, timeout time.Duration) (*clientv3.Client, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return cli, nil
}

// rosterEntry is what gets announced. Order counts stay in memory.
type rosterEntry struct {
	ID         domain.StaffID `json:"id"`
	Speciality []string       `json:"speciality"`
	Since      time.Time      `json:"since"`
}

// RosterPublisher mirrors the on-duty roster into etcd. Every key hangs off
// one lease owned by this process, so the roster disappears with it.
type RosterPublisher struct {
	client  *clientv3.Client
	ttl     time.Duration
	leaseID clientv3.LeaseID
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewRosterPublisher creates a publisher; call Start before use.
func NewRosterPublisher(client *clientv3.Client, ttl time.Duration, logger *slog.Logger) *RosterPublisher {
	return &RosterPublisher{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "etcd-roster"),
		tracer: otel.Tracer("kitchen-dispatch-etcd-roster"),
	}
}

// Start grants the roster lease, clears any roster left by a previous run and
// keeps the lease alive until ctx is done.
func (p *RosterPublisher) Start(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	leaseResp, err := p.client.Grant(opCtx, int64(p.ttl.Seconds()))
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	p.leaseID = leaseResp.ID

	if _, err := p.client.Delete(opCtx, RosterPrefix, clientv3.WithPrefix()); err != nil {
		return fmt.Errorf("failed to clear stale roster: %w", err)
	}

	keepAliveCh, err := p.client.KeepAlive(ctx, p.leaseID)
	if err != nil {
		return fmt.Errorf("failed to start keep-alive: %w", err)
	}

	go func() {
		for {
			ka, ok := <-keepAliveCh
			if !ok {
				p.logger.Warn("keep-alive channel closed, roster lease may have expired")
				return
			}
			p.logger.Debug("lease keep-alive refreshed", "lease_id", ka.ID, "ttl", ka.TTL)
		}
	}()

	p.logger.Info("roster lease granted", "lease_id", p.leaseID, "ttl", p.ttl)
	return nil
}

// OnDuty implements domain.RosterObserver.
func (p *RosterPublisher) OnDuty(ctx context.Context, info domain.WorkerInfo) error {
	ctx, span := p.tracer.Start(ctx, "roster.etcd.OnDuty")
	defer span.End()

	value, err := encodeEntry(info)
	if err != nil {
		return err
	}

	key := rosterKey(info.ID)
	span.SetAttributes(attribute.String("staff.id", string(info.ID)), attribute.String("etcd.key", key))

	if _, err := p.client.Put(ctx, key, value, clientv3.WithLease(p.leaseID)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to put roster entry")
		return fmt.Errorf("failed to announce staff %s: %w", info.ID, err)
	}
	return nil
}

// OffDuty implements domain.RosterObserver.
func (p *RosterPublisher) OffDuty(ctx context.Context, id domain.StaffID) error {
	ctx, span := p.tracer.Start(ctx, "roster.etcd.OffDuty")
	defer span.End()

	key := rosterKey(id)
	span.SetAttributes(attribute.String("staff.id", string(id)), attribute.String("etcd.key", key))

	if _, err := p.client.Delete(ctx, key); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete roster entry")
		return fmt.Errorf("failed to withdraw staff %s: %w", id, err)
	}
	return nil
}

// Close revokes the lease, which removes every announced key.
func (p *RosterPublisher) Close(ctx context.Context) error {
	if p.leaseID == clientv3.NoLease {
		return nil
	}
	if _, err := p.client.Revoke(ctx, p.leaseID); err != nil {
		return fmt.Errorf("failed to revoke lease: %w", err)
	}
	return nil
}

// rosterKey escapes id so every staff id gets its own key under RosterPrefix.
func rosterKey(id domain.StaffID) string {
	return RosterPrefix + url.PathEscape(string(id))
}

func encodeEntry(info domain.WorkerInfo) (string, error) {
	b, err := json.Marshal(rosterEntry{ID: info.ID, Speciality: info.Speciality, Since: info.Since})
	if err != nil {
		return "", fmt.Errorf("failed to marshal roster entry for %s: %w", info.ID, err)
	}
	return string(b), nil
}
