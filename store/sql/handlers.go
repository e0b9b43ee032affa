package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func workspaceHandlers() repository.ModelHandlers[*workspaceRecord] {
	return repository.ModelHandlers[*workspaceRecord]{
		NewRecord: func() *workspaceRecord {
			return &workspaceRecord{}
		},
		GetID: func(record *workspaceRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *workspaceRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *workspaceRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func memberHandlers() repository.ModelHandlers[*memberRecord] {
	return repository.ModelHandlers[*memberRecord]{
		NewRecord: func() *memberRecord {
			return &memberRecord{}
		},
		GetID: func(record *memberRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *memberRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *memberRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func leadHandlers() repository.ModelHandlers[*leadRecord] {
	return repository.ModelHandlers[*leadRecord]{
		NewRecord: func() *leadRecord {
			return &leadRecord{}
		},
		GetID: func(record *leadRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *leadRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *leadRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func endpointHandlers() repository.ModelHandlers[*endpointRecord] {
	return repository.ModelHandlers[*endpointRecord]{
		NewRecord: func() *endpointRecord {
			return &endpointRecord{}
		},
		GetID: func(record *endpointRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *endpointRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *endpointRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func auditHandlers() repository.ModelHandlers[*auditEntryRecord] {
	return repository.ModelHandlers[*auditEntryRecord]{
		NewRecord: func() *auditEntryRecord {
			return &auditEntryRecord{}
		},
		GetID: func(record *auditEntryRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *auditEntryRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *auditEntryRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
