package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"rumclub/internal/core"
	"rumclub/internal/log"
	"rumclub/internal/metrics"
	"rumclub/internal/roster"
	"rumclub/internal/storage"
)

// Operation names carried by change events, logs and metrics.
const (
	OpSetSample       = "set_sample"
	OpSetOrder        = "set_order"
	OpSetDues         = "set_dues"
	OpSetTastingCost  = "set_tasting_cost"
	OpSetParticipant  = "set_participant"
	OpAddGuest        = "add_guest"
	OpUpdateGuest     = "update_guest"
	OpRemoveGuest     = "remove_guest"
	OpUpdateArchive   = "update_archive"
	OpSetBalance      = "set_opening_balance"
	OpAddMember       = "add_member"
	OpRemoveMember    = "remove_member"
	OpImportMembers   = "import_members"
	OpResetYear       = "reset_year"
	OpRollBalance     = "roll_balance_forward"
	OpStartNewYear    = "start_new_year"
	OpRestoreSnapshot = "restore_snapshot"
)

// ErrSaveFailed wraps storage errors from a mutation. The mutation is not
// applied when the save fails.
var ErrSaveFailed = errors.New("could not save ledger")

// Publisher announces saved mutations. *amqp.Client implements it.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, operation string, revision int64) error
}

// LoadReport tells whether the last load fell back to an empty ledger, and why.
type LoadReport struct {
	Fallback    bool
	Cause       error
	Quarantined string
}

// LedgerService owns the in-memory ledger. It is the single writer: every
// operation holds one mutex, mutations are applied to a copy, saved, and only
// then made current.
type LedgerService struct {
	mu       sync.Mutex
	store    storage.Store
	policy   core.Policy
	ledger   *core.Ledger
	revision int64
	report   LoadReport

	publisher Publisher
	metrics   *metrics.Metrics
	logger    *log.Logger
	slog      *log.StructuredLogger
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithPublisher announces every saved mutation through p.
func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithMetrics records mutations, save failures and load fallbacks.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

// NewLedgerService loads the ledger from store. Load never fails: a missing
// or unusable document is replaced by an empty ledger and reported through
// LoadReport.
func NewLedgerService(ctx context.Context, store storage.Store, policy core.Policy, opts ...Option) *LedgerService {
	s := &LedgerService{store: store, policy: policy}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(log.DefaultConfig())
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.slog = log.NewStructuredLogger(s.logger)
	s.Reload(ctx)
	return s
}

// Reload replaces the in-memory ledger with the stored document.
func (s *LedgerService) Reload(ctx context.Context) LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.store.Load(ctx, s.policy)
	if err == nil {
		s.ledger, s.report = l, LoadReport{}
		s.logger.InfoContext(ctx, "Ledger loaded",
			"members", len(l.Members),
			log.FieldTreasury, l.Treasury().Cents)
		return s.report
	}

	report := LoadReport{Fallback: true, Cause: err}
	reason := "error"
	switch {
	case errors.Is(err, storage.ErrNotFound):
		reason = "missing"
		s.logger.InfoContext(ctx, "No saved ledger, starting empty")
	case errors.Is(err, storage.ErrCorrupt):
		reason = "corrupt"
		if q, ok := s.store.(storage.Quarantiner); ok {
			dst, qerr := q.Quarantine(ctx)
			if qerr != nil {
				s.logger.ErrorContext(ctx, "Failed to set corrupt ledger aside", log.FieldError, qerr)
			}
			report.Quarantined = dst
		}
		s.logger.WarnContext(ctx, "Saved ledger is unreadable, starting empty",
			log.FieldError, err,
			"quarantined", report.Quarantined)
	default:
		s.logger.WarnContext(ctx, "Failed to load ledger, starting empty", log.FieldError, err)
	}
	if s.metrics != nil {
		s.metrics.LoadFallbacks.WithLabelValues(reason).Inc()
	}
	s.ledger, s.report = core.NewLedger(s.policy), report
	return report
}

// LoadReport returns the outcome of the last load.
func (s *LedgerService) LoadReport() LoadReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Revision counts saved mutations since the process started.
func (s *LedgerService) Revision() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Ledger returns a copy of the current ledger.
func (s *LedgerService) Ledger() *core.Ledger {
	l, _ := s.Current()
	return l
}

// Current returns a copy of the ledger together with its revision.
func (s *LedgerService) Current() (*core.Ledger, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone(), s.revision
}

// Summary derives the annual figures from the current ledger.
func (s *LedgerService) Summary() core.AnnualSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Summary()
}

// SampleSummary derives one month's figures.
func (s *LedgerService) SampleSummary(month string) (core.SampleSummary, error) {
	if !core.IsSampleMonth(month) {
		return core.SampleSummary{}, fmt.Errorf("%q: %w", month, core.ErrUnknownMonth)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.SampleSummary(month), nil
}

// TastingSummary derives one event's figures.
func (s *LedgerService) TastingSummary(month string) (core.TastingSummary, error) {
	if !core.IsTastingMonth(month) {
		return core.TastingSummary{}, fmt.Errorf("%q: %w", month, core.ErrUnknownEvent)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.TastingSummary(month), nil
}

// Statement builds one member's account.
func (s *LedgerService) Statement(member string) (core.MemberStatement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Statement(member)
}

// mutate applies fn to a copy of the ledger, saves it and makes it current.
// Nothing changes when fn or the save fails.
func (s *LedgerService) mutate(ctx context.Context, op string, fn func(*core.Ledger) error) error {
	s.mu.Lock()
	next := s.ledger.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.store.Save(ctx, next); err != nil {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.SaveFailures.WithLabelValues(op).Inc()
		}
		s.slog.LogError(ctx, "Failed to save ledger", err, log.ComponentStorage, op, nil)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	s.ledger = next
	s.revision++
	revision := s.revision
	treasury := next.Treasury()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Mutations.WithLabelValues(op).Inc()
	}
	s.slog.LogMutation(ctx, op, revision, treasury.Cents)
	s.publish(ctx, op, revision)
	return nil
}

// publish never fails the mutation: the ledger is already saved.
func (s *LedgerService) publish(ctx context.Context, op string, revision int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, op, revision); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldOperation, op,
			log.FieldRevision, revision,
			log.FieldError, err)
	}
}

// UpdateSample sets a month's bottle label and pricing in one save.
func (s *LedgerService) UpdateSample(ctx context.Context, month, bottle string, cost, price core.Money) error {
	return s.mutate(ctx, OpSetSample, func(l *core.Ledger) error {
		// Pricing first so a newly created library entry is valued at the new price.
		if err := l.SetSamplePricing(month, cost, price); err != nil {
			return err
		}
		return l.SetBottle(month, bottle)
	})
}

func (s *LedgerService) SetOrder(ctx context.Context, month, member string, quantity int, paid bool) error {
	return s.mutate(ctx, OpSetOrder, func(l *core.Ledger) error {
		return l.SetOrder(month, member, quantity, paid)
	})
}

func (s *LedgerService) SetDuesPaid(ctx context.Context, member string, paid bool) error {
	return s.mutate(ctx, OpSetDues, func(l *core.Ledger) error {
		return l.SetDuesPaid(member, paid)
	})
}

func (s *LedgerService) SetTastingBottleCost(ctx context.Context, month string, cost core.Money) error {
	return s.mutate(ctx, OpSetTastingCost, func(l *core.Ledger) error {
		return l.SetTastingBottleCost(month, cost)
	})
}

func (s *LedgerService) SetParticipant(ctx context.Context, month, member string, p core.Participant) error {
	return s.mutate(ctx, OpSetParticipant, func(l *core.Ledger) error {
		return l.SetParticipant(month, member, p)
	})
}

// RegisterGuest adds a guest with its meal and payment flags in one save.
func (s *LedgerService) RegisterGuest(ctx context.Context, month string, g core.Guest) (int, error) {
	var index int
	err := s.mutate(ctx, OpAddGuest, func(l *core.Ledger) error {
		var err error
		if index, err = l.AddGuest(month, g.Name); err != nil {
			return err
		}
		return l.UpdateGuest(month, index, g)
	})
	return index, err
}

func (s *LedgerService) UpdateGuest(ctx context.Context, month string, index int, g core.Guest) error {
	return s.mutate(ctx, OpUpdateGuest, func(l *core.Ledger) error {
		return l.UpdateGuest(month, index, g)
	})
}

func (s *LedgerService) RemoveGuest(ctx context.Context, month string, index int) error {
	return s.mutate(ctx, OpRemoveGuest, func(l *core.Ledger) error {
		return l.RemoveGuest(month, index)
	})
}

// UpdateArchive changes the stock flag and/or notes of a library bottle.
// Nil fields are left as they are.
func (s *LedgerService) UpdateArchive(ctx context.Context, month string, inStock *bool, notes *string) error {
	return s.mutate(ctx, OpUpdateArchive, func(l *core.Ledger) error {
		if inStock != nil {
			if err := l.SetArchiveInStock(month, *inStock); err != nil {
				return err
			}
		}
		if notes != nil {
			return l.SetArchiveNotes(month, *notes)
		}
		return nil
	})
}

func (s *LedgerService) SetOpeningBalance(ctx context.Context, m core.Money) error {
	return s.mutate(ctx, OpSetBalance, func(l *core.Ledger) error {
		l.SetOpeningBalance(m)
		return nil
	})
}

// AddMember formats and adds one member, returning the stored name.
func (s *LedgerService) AddMember(ctx context.Context, surname, firstname string) (string, error) {
	var name string
	err := s.mutate(ctx, OpAddMember, func(l *core.Ledger) error {
		var err error
		name, err = l.AddMember(surname, firstname)
		return err
	})
	return name, err
}

func (s *LedgerService) RemoveMember(ctx context.Context, name string) error {
	return s.mutate(ctx, OpRemoveMember, func(l *core.Ledger) error {
		return l.RemoveMember(name)
	})
}

// ImportMembers replaces the roster with the members parsed from r.
// Rows for members no longer listed are kept as orphans.
func (s *LedgerService) ImportMembers(ctx context.Context, r io.Reader) (roster.Report, error) {
	report, err := roster.Parse(r)
	if err != nil {
		return report, err
	}
	err = s.mutate(ctx, OpImportMembers, func(l *core.Ledger) error {
		l.ReplaceMembers(report.Members)
		return nil
	})
	if err != nil {
		return report, err
	}
	s.logger.InfoContext(ctx, "Members imported",
		"rows", report.Rows,
		"members", len(report.Members),
		"skipped", report.Skipped,
		"duplicates", report.Duplicates)
	return report, nil
}

// ResetYear clears the yearly data; roster and opening balance are kept.
func (s *LedgerService) ResetYear(ctx context.Context) error {
	return s.mutate(ctx, OpResetYear, func(l *core.Ledger) error {
		l.ResetYear()
		return nil
	})
}

// RollBalanceForward makes the current treasury the opening balance.
func (s *LedgerService) RollBalanceForward(ctx context.Context) (core.Money, error) {
	var balance core.Money
	err := s.mutate(ctx, OpRollBalance, func(l *core.Ledger) error {
		balance = l.RollBalanceForward()
		return nil
	})
	return balance, err
}

// StartNewYear rolls the balance forward then resets the year, in one save.
func (s *LedgerService) StartNewYear(ctx context.Context) (core.Money, error) {
	var balance core.Money
	err := s.mutate(ctx, OpStartNewYear, func(l *core.Ledger) error {
		balance = l.RollBalanceForward()
		l.ResetYear()
		return nil
	})
	return balance, err
}

// Replace makes l the current ledger, e.g. after restoring a snapshot.
func (s *LedgerService) Replace(ctx context.Context, l *core.Ledger) error {
	return s.mutate(ctx, OpRestoreSnapshot, func(next *core.Ledger) error {
		*next = *l.Clone()
		next.Policy = s.policy
		return nil
	})
}

// Close releases the store.
func (s *LedgerService) Close() error {
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close ledger store: %w", err)
	}
	return nil
}
