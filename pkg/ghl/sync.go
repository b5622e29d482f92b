package ghl

import (
	"context"
	"fmt"
	"time"

	"github.com/propdeskhq/propdesk/pkg/comms"
	"github.com/propdeskhq/propdesk/pkg/identity"
	"github.com/propdeskhq/propdesk/pkg/logger"
)

// defaultLookback bounds the first sync after a restart so we do not pull
// the provider's entire history.
const defaultLookback = 24 * time.Hour

// Source abstracts the provider reads so tests can stub them.
type Source interface {
	MessagesSince(ctx context.Context, since time.Time) ([]Message, error)
	CallsSince(ctx context.Context, since time.Time) ([]CallRecord, error)
}

// Syncer pulls provider conversations and call transcripts into the inbox.
// Records flow through the communication writer, so a message that already
// arrived via webhook is a no-op here.
type Syncer struct {
	source   Source
	writer   *comms.Writer
	resolver *identity.Resolver
	log      logger.Logger
	now      func() time.Time

	lastMessages time.Time
	lastCalls    time.Time
}

// NewSyncer creates a provider syncer.
func NewSyncer(source Source, writer *comms.Writer, resolver *identity.Resolver, log logger.Logger) *Syncer {
	if log == nil {
		log = logger.Default()
	}
	return &Syncer{
		source:   source,
		writer:   writer,
		resolver: resolver,
		log:      log,
		now:      time.Now,
	}
}

// SyncConversations pulls messages added since the last run and writes each
// as a communication record.
func (s *Syncer) SyncConversations(ctx context.Context) error {
	since := s.since(s.lastMessages)
	messages, err := s.source.MessagesSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to fetch provider messages: %w", err)
	}

	stored := 0
	for _, msg := range messages {
		rec := &comms.Record{
			Type:        comms.TypeSMS,
			Direction:   direction(msg.Direction),
			Body:        msg.Body,
			FromAddress: msg.From,
			ToAddress:   msg.To,
			ExternalID:  msg.ID,
			CreatedAt:   msg.DateAdded,
		}
		s.attribute(ctx, rec)
		if _, err := s.writer.Write(ctx, rec); err != nil {
			s.log.Warn("failed to store synced message", "external_id", msg.ID, "error", err)
			continue
		}
		stored++
		if msg.DateAdded.After(s.lastMessages) {
			s.lastMessages = msg.DateAdded
		}
	}

	if stored > 0 {
		s.log.Info("conversation sync complete", "fetched", len(messages), "stored", stored)
	}
	return nil
}

// SyncCallTranscripts pulls completed calls and writes each transcript as a
// call record.
func (s *Syncer) SyncCallTranscripts(ctx context.Context) error {
	since := s.since(s.lastCalls)
	calls, err := s.source.CallsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to fetch provider calls: %w", err)
	}

	stored := 0
	for _, call := range calls {
		rec := &comms.Record{
			Type:        comms.TypeCall,
			Direction:   direction(call.Direction),
			Body:        call.Transcript,
			FromAddress: call.From,
			ToAddress:   call.To,
			ExternalID:  call.ID,
			Status:      comms.StatusAnswered,
			CreatedAt:   call.DateAdded,
			Metadata: map[string]any{
				"duration_seconds": call.Duration,
			},
		}
		s.attribute(ctx, rec)
		if _, err := s.writer.Write(ctx, rec); err != nil {
			s.log.Warn("failed to store synced call", "external_id", call.ID, "error", err)
			continue
		}
		stored++
		if call.DateAdded.After(s.lastCalls) {
			s.lastCalls = call.DateAdded
		}
	}

	if stored > 0 {
		s.log.Info("call transcript sync complete", "fetched", len(calls), "stored", stored)
	}
	return nil
}

func (s *Syncer) since(last time.Time) time.Time {
	if last.IsZero() {
		return s.now().Add(-defaultLookback)
	}
	return last
}

// attribute resolves the external party's phone number to a lead or owner.
// For outbound records the external party is the destination.
func (s *Syncer) attribute(ctx context.Context, rec *comms.Record) {
	contact := rec.FromAddress
	if rec.Direction == comms.DirectionOutbound {
		contact = rec.ToAddress
	}
	resolved, err := s.resolver.ResolvePhone(ctx, contact)
	if err != nil {
		return
	}
	switch resolved.Kind {
	case identity.KindLead:
		id := resolved.ID
		rec.LeadID = &id
	case identity.KindOwner:
		id := resolved.ID
		rec.OwnerID = &id
	}
}

func direction(raw string) comms.Direction {
	if raw == "outbound" {
		return comms.DirectionOutbound
	}
	return comms.DirectionInbound
}
