package match

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/psc-ict/frontdesk/internal/model"
	"github.com/psc-ict/frontdesk/internal/store"
)

// Notifier delivers a templated email. It reports whether the message
// was accepted and, if not, a human-readable reason.
type Notifier interface {
	Send(ctx context.Context, recipient, templateKey string, subs map[string]string) (bool, string)
}

// Printer produces a physical potential-match chit for counter staff.
type Printer interface {
	PrintMatchChit(m model.MatchResult) bool
}

// Engine runs matching passes against the opposite item set and
// dispatches the resulting side effects. Side effects are fire-and-forget:
// a failed email or print is logged, never fatal to the triggering request.
type Engine struct {
	db       *sql.DB
	notifier Notifier
	printer  Printer
	log      *slog.Logger
}

func NewEngine(db *sql.DB, notifier Notifier, printer Printer, log *slog.Logger) *Engine {
	return &Engine{db: db, notifier: notifier, printer: printer, log: log}
}

// MatchesForLost scores a lost item against all unclaimed found items
// and returns pairs at or above threshold, best first.
func (e *Engine) MatchesForLost(ctx context.Context, lost *model.LostItem, threshold float64, since time.Time) ([]model.MatchResult, error) {
	candidates, err := store.ListFoundItems(ctx, e.db, model.ItemStatusFound, "", since)
	if err != nil {
		return nil, fmt.Errorf("listing found candidates: %w", err)
	}

	var matches []model.MatchResult
	for i := range candidates {
		found := &candidates[i]
		score := Score(lost, found)
		if score < threshold {
			continue
		}
		matches = append(matches, model.MatchResult{
			LostItem:  lost,
			FoundItem: found,
			Score:     score,
			Reasons:   Reasons(lost, found),
		})
	}
	sortMatches(matches)
	return matches, nil
}

// MatchesForFound scores a found item against all pending lost items.
func (e *Engine) MatchesForFound(ctx context.Context, found *model.FoundItem, threshold float64, since time.Time) ([]model.MatchResult, error) {
	candidates, err := store.ListLostItems(ctx, e.db, model.ItemStatusPending, "", since)
	if err != nil {
		return nil, fmt.Errorf("listing lost candidates: %w", err)
	}

	var matches []model.MatchResult
	for i := range candidates {
		lost := &candidates[i]
		score := Score(lost, found)
		if score < threshold {
			continue
		}
		matches = append(matches, model.MatchResult{
			LostItem:  lost,
			FoundItem: found,
			Score:     score,
			Reasons:   Reasons(lost, found),
		})
	}
	sortMatches(matches)
	return matches, nil
}

func sortMatches(matches []model.MatchResult) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

// OnLostCreated runs the matching pass triggered by a new lost report.
// It returns the matches above the lost-creation threshold plus notes
// about any skipped notifications.
func (e *Engine) OnLostCreated(ctx context.Context, lost *model.LostItem) ([]model.MatchResult, []string) {
	threshold := store.SettingFloat(ctx, e.db, "lost_match_threshold", 0.4)
	matches, err := e.MatchesForLost(ctx, lost, threshold, time.Time{})
	if err != nil {
		e.log.Error("matching pass failed", "tracking_id", lost.TrackingID, "error", err)
		return nil, []string{"matching pass failed"}
	}
	if len(matches) == 0 {
		return nil, nil
	}

	notes := e.notifyReporter(ctx, lost, matches)
	return matches, notes
}

// OnFoundCreated runs the matching pass triggered by a new found item.
// Each matched lost item's reporter is notified separately, subject to
// that item's own email caps.
func (e *Engine) OnFoundCreated(ctx context.Context, found *model.FoundItem) ([]model.MatchResult, []string) {
	threshold := store.SettingFloat(ctx, e.db, "found_match_threshold", 0.35)
	matches, err := e.MatchesForFound(ctx, found, threshold, time.Time{})
	if err != nil {
		e.log.Error("matching pass failed", "found_id", found.ID, "error", err)
		return nil, []string{"matching pass failed"}
	}

	var notes []string
	for i := range matches {
		notes = append(notes, e.notifyReporter(ctx, matches[i].LostItem, matches[i:i+1])...)
	}
	return matches, notes
}

// notifyReporter sends one match notification covering all of a lost
// item's matches. The rate-limit check and the email log record happen
// before dispatch; the send itself runs in the background.
func (e *Engine) notifyReporter(ctx context.Context, lost *model.LostItem, matches []model.MatchResult) []string {
	if e.notifier == nil {
		return nil
	}
	if !store.SettingBool(ctx, e.db, "email_notifications_enabled", true) {
		return []string{"email notifications disabled"}
	}
	if lost.ReporterEmail == "" {
		return []string{fmt.Sprintf("no reporter email for %s", lost.TrackingID)}
	}

	allowed, reason, err := store.AllowEmail(ctx, e.db, lost.ID)
	if err != nil {
		e.log.Error("email limit check failed", "tracking_id", lost.TrackingID, "error", err)
		return []string{"email limit check failed"}
	}
	if !allowed {
		return []string{fmt.Sprintf("notification skipped for %s: %s", lost.TrackingID, reason)}
	}

	if err := store.RecordEmail(ctx, e.db, lost.ReporterEmail, "match_notification", &lost.ID); err != nil {
		e.log.Error("recording email failed", "tracking_id", lost.TrackingID, "error", err)
	}

	subs := map[string]string{
		"owner_name":    lost.OwnerName,
		"tracking_id":   lost.TrackingID,
		"match_count":   fmt.Sprintf("%d", len(matches)),
		"match_details": formatMatchDetails(matches),
	}
	recipient := lost.ReporterEmail
	go func() {
		sent, why := e.notifier.Send(context.Background(), recipient, "match_notification_email_template", subs)
		if !sent {
			e.log.Warn("match notification not sent", "recipient", recipient, "reason", why)
		}
	}()

	return nil
}

func formatMatchDetails(matches []model.MatchResult) string {
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "- %s found at %s on %s (%.0f%% match)\n",
			m.FoundItem.ItemName, m.FoundItem.PlaceFound,
			m.FoundItem.DateReported.Format("2 Jan 2006"), m.Score*100)
	}
	return b.String()
}

// BackgroundScan runs the periodic windowed pass over recent items and
// returns the number of pairs above the task threshold. It dispatches
// nothing; the count feeds monitoring.
func (e *Engine) BackgroundScan(ctx context.Context) (int, error) {
	threshold := store.SettingFloat(ctx, e.db, "task_match_threshold", 0.5)
	daysBack := store.SettingInt(ctx, e.db, "task_match_days_back", 14)
	since := time.Now().AddDate(0, 0, -daysBack)

	lostItems, err := store.ListLostItems(ctx, e.db, model.ItemStatusPending, "", since)
	if err != nil {
		return 0, fmt.Errorf("listing lost items: %w", err)
	}
	foundItems, err := store.ListFoundItems(ctx, e.db, model.ItemStatusFound, "", since)
	if err != nil {
		return 0, fmt.Errorf("listing found items: %w", err)
	}

	count := 0
	for i := range lostItems {
		for j := range foundItems {
			if Score(&lostItems[i], &foundItems[j]) >= threshold {
				count++
			}
		}
	}
	return count, nil
}

// PotentialMatches resolves an anchor item by lost tracking ID or found
// numeric ID and returns its matches above the on-demand threshold,
// windowed by the configured days-back. A nil slice with nil error means
// the anchor does not exist.
func (e *Engine) PotentialMatches(ctx context.Context, trackingID string, foundID int64) ([]model.MatchResult, error) {
	threshold := store.SettingFloat(ctx, e.db, "generate_match_threshold", 0.3)
	daysBack := store.SettingInt(ctx, e.db, "match_days_back", 14)
	since := time.Now().AddDate(0, 0, -daysBack)

	if trackingID != "" {
		lost, err := store.GetLostItemByTrackingID(ctx, e.db, trackingID)
		if err != nil || lost == nil {
			return nil, err
		}
		return e.MatchesForLost(ctx, lost, threshold, since)
	}

	found, err := store.GetFoundItem(ctx, e.db, foundID)
	if err != nil || found == nil {
		return nil, err
	}
	return e.MatchesForFound(ctx, found, threshold, since)
}

// PrintMatches resolves an anchor like PotentialMatches but against the
// print threshold, and prints a chit per match. Returns the number of
// chits successfully printed.
func (e *Engine) PrintMatches(ctx context.Context, trackingID string, foundID int64) (int, error) {
	if e.printer == nil {
		return 0, nil
	}
	threshold := store.SettingFloat(ctx, e.db, "print_match_threshold", 0.4)

	var matches []model.MatchResult
	if trackingID != "" {
		lost, err := store.GetLostItemByTrackingID(ctx, e.db, trackingID)
		if err != nil || lost == nil {
			return 0, err
		}
		matches, err = e.MatchesForLost(ctx, lost, threshold, time.Time{})
		if err != nil {
			return 0, err
		}
	} else {
		found, err := store.GetFoundItem(ctx, e.db, foundID)
		if err != nil || found == nil {
			return 0, err
		}
		matches, err = e.MatchesForFound(ctx, found, threshold, time.Time{})
		if err != nil {
			return 0, err
		}
	}

	printed := 0
	for _, m := range matches {
		if e.printer.PrintMatchChit(m) {
			printed++
		} else {
			e.log.Warn("match chit print failed",
				"tracking_id", m.LostItem.TrackingID, "found_id", m.FoundItem.ID)
		}
	}
	return printed, nil
}
