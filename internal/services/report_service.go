package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/logging"
	"meetscribe/internal/models"
	"meetscribe/internal/recall"
	"meetscribe/internal/store"
	"meetscribe/internal/summarize"
)

// ReportService owns the EventReport lifecycle: it executes bot actions
// against the bot provider, keeps the event's guard flags in sync, and
// finalizes reports once a transcript is available.
type ReportService struct {
	store      *store.Store
	bots       recall.BotProvider
	summarizer summarize.Summarizer
}

// NewReportService creates a new report service
func NewReportService(st *store.Store, bots recall.BotProvider, summarizer summarize.Summarizer) *ReportService {
	return &ReportService{
		store:      st,
		bots:       bots,
		summarizer: summarizer,
	}
}

// CreateBotForEvent schedules a bot for the event and attaches a fresh
// in-flight report. The join time is the event's dispatch deadline in UTC.
func (s *ReportService) CreateBotForEvent(ctx context.Context, event *models.Event, minutesBefore int) error {
	if event.MeetingLink == "" {
		return ErrNoMeetingLink
	}

	joinAt := event.Deadline(minutesBefore).UTC()
	botID, err := s.bots.CreateBot(ctx, event.MeetingLink, joinAt)
	if err != nil {
		GetMetrics().RecordBotError("create")
		return fmt.Errorf("failed to create bot for event %s: %w", event.ID.Hex(), err)
	}

	report := &models.EventReport{
		BotID:      botID,
		OwnerEmail: event.OwnerEmail,
		Attendees:  event.Attendees,
		StartTime:  event.StartTime,
	}
	if err := s.store.Reports.Insert(ctx, report); err != nil {
		return fmt.Errorf("failed to persist report for bot %s: %w", botID, err)
	}

	event.HasSentBot = true
	event.ReportID = &report.ID
	if err := s.store.Events.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to attach report to event %s: %w", event.ID.Hex(), err)
	}

	GetMetrics().RecordBotAction("create")
	return nil
}

// RemoveBotForEvent cancels the event's bot and detaches its report,
// resetting hasSentBot so a later window can re-trigger.
func (s *ReportService) RemoveBotForEvent(ctx context.Context, event *models.Event) error {
	if event.ReportID == nil {
		return nil
	}

	report, err := s.store.Reports.GetByID(ctx, *event.ReportID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load report for event %s: %w", event.ID.Hex(), err)
	}

	if report != nil {
		if err := s.bots.DeleteBot(ctx, report.BotID); err != nil {
			GetMetrics().RecordBotError("delete")
			return fmt.Errorf("failed to delete bot %s: %w", report.BotID, err)
		}
		if err := s.store.Reports.Delete(ctx, report.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to delete report %s: %w", report.ID.Hex(), err)
		}
	}

	event.HasSentBot = false
	event.ReportID = nil
	if err := s.store.Events.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to detach report from event %s: %w", event.ID.Hex(), err)
	}

	GetMetrics().RecordBotAction("delete")
	return nil
}

// ReplaceBotForEvent reschedules the event's bot after a schedule change.
// The provider does not reliably support partial reschedule, so this is a
// delete followed by a create. If the create half fails the event is left
// with hasSentBot=false and no report, which the dispatch loop retries
// naturally on its next pass.
func (s *ReportService) ReplaceBotForEvent(ctx context.Context, event *models.Event, minutesBefore int) error {
	if err := s.RemoveBotForEvent(ctx, event); err != nil {
		return err
	}
	if err := s.CreateBotForEvent(ctx, event, minutesBefore); err != nil {
		return err
	}
	GetMetrics().RecordBotAction("update")
	return nil
}

// Finalize runs exactly once per report: it fetches the transcript, resolves
// the platform, generates the derived summaries, marks the owning event
// finished and persists everything. Callers must have checked InFlight()
// first; a report with a platform set is never re-finalized.
func (s *ReportService) Finalize(ctx context.Context, report *models.EventReport) error {
	event, err := s.store.Events.GetByReportID(ctx, report.ID)
	if err != nil {
		return fmt.Errorf("failed to find event for report %s: %w", report.ID.Hex(), err)
	}

	transcript, err := s.bots.FetchTranscript(ctx, report.BotID)
	if err != nil {
		return fmt.Errorf("failed to fetch transcript for bot %s: %w", report.BotID, err)
	}
	report.Transcript = transcript
	logging.WithBot(logging.WithOwner(report.OwnerEmail), report.BotID).
		Debug("transcript fetched", "bytes", len(transcript))

	// summarize before persisting the platform so a failed pass stays
	// in flight and is retried whole
	GetMetrics().RecordSummarizerCall()
	emailText, err := s.summarizer.EmailSummary(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to generate email summary for report %s: %w", report.ID.Hex(), err)
	}
	GetMetrics().RecordSummarizerCall()
	postText, err := s.summarizer.PostSummary(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to generate post summary for report %s: %w", report.ID.Hex(), err)
	}
	report.EmailText = emailText
	report.PostText = postText

	platform := models.PlatformFromLink(event.MeetingLink)
	if platform == "" {
		// unmappable link still terminates the report
		platform = models.PlatformUnknown
	}
	report.Platform = &platform

	// the event is marked finished before the report's platform is
	// persisted: the platform write is the terminal step, so a failure
	// anywhere in between leaves the report in flight and the next pass
	// retries the whole finalization
	event.Finished = true
	if err := s.store.Events.Update(ctx, event); err != nil {
		return fmt.Errorf("failed to mark event %s finished: %w", event.ID.Hex(), err)
	}

	if err := s.store.Reports.Update(ctx, report); err != nil {
		return fmt.Errorf("failed to persist finalized report %s: %w", report.ID.Hex(), err)
	}

	s.generateAutomations(ctx, report)

	GetMetrics().RecordReportFinalized()
	log.Printf("✅ [REPORT] Finalized report %s (bot %s, platform %s)", report.ID.Hex(), report.BotID, platform)
	return nil
}

// generateAutomations produces one ReportAutomation per automation the
// owning account subscribes to. A single automation's failure is logged and
// skipped; the report is already finalized at this point.
func (s *ReportService) generateAutomations(ctx context.Context, report *models.EventReport) {
	account, err := s.store.Accounts.GetByUsernameAndProvider(ctx, report.OwnerEmail, models.ProviderGoogle)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("⚠️ [REPORT] Failed to load account for report %s: %v", report.ID.Hex(), err)
		}
		return
	}

	for _, automationID := range account.AutomationIDs {
		automation, err := s.store.Automations.GetAutomation(ctx, automationID)
		if err != nil {
			log.Printf("⚠️ [REPORT] Automation %s not found for report %s: %v", automationID.Hex(), report.ID.Hex(), err)
			continue
		}

		GetMetrics().RecordSummarizerCall()
		output, err := s.summarizer.AutomationOutput(ctx, report, automation)
		if err != nil {
			log.Printf("⚠️ [REPORT] Failed to generate automation %s for report %s: %v", automationID.Hex(), report.ID.Hex(), err)
			continue
		}
		if err := s.store.Automations.InsertReportAutomation(ctx, output); err != nil {
			log.Printf("⚠️ [REPORT] Failed to persist automation output for report %s: %v", report.ID.Hex(), err)
		}
	}
}

// GetReport returns one finalized or in-flight report, restricted to the
// session's own Google identities.
func (s *ReportService) GetReport(ctx context.Context, session models.Session, id primitive.ObjectID) (*models.EventReport, error) {
	report, err := s.store.Reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.HasGoogleEmail(report.OwnerEmail) {
		return nil, ErrForbidden
	}
	return report, nil
}

// ListFinalized returns every finalized report across all of the session's
// Google identities, ordered by meeting start.
func (s *ReportService) ListFinalized(ctx context.Context, session models.Session) ([]*models.EventReport, error) {
	var all []*models.EventReport
	for _, email := range session.GoogleEmails {
		reports, err := s.store.Reports.ListFinalizedByOwner(ctx, email)
		if err != nil {
			return nil, err
		}
		all = append(all, reports...)
	}
	return all, nil
}

// ListReportAutomations returns the generated automation outputs for one
// report, with the same ownership check as GetReport.
func (s *ReportService) ListReportAutomations(ctx context.Context, session models.Session, reportID primitive.ObjectID) ([]*models.ReportAutomation, error) {
	if _, err := s.GetReport(ctx, session, reportID); err != nil {
		return nil, err
	}
	return s.store.Automations.ListReportAutomations(ctx, reportID)
}
