package audit

// HasComplianceFlags is implemented by entity types that carry compliance
// state. Callers ask the entity directly instead of inspecting it at runtime.
type HasComplianceFlags interface {
	// ComplianceFlags reports whether the entity's PII has been stripped
	// and whether it is under legal hold.
	ComplianceFlags() (piiStripped, legalHold bool)
}

// RedactedActor replaces the actor identity in audit output for
// PII-stripped entities.
const RedactedActor = "[redacted]"

// ActorFor returns the audit actor string for an entity, redacting it when
// the entity's PII has been stripped.
func ActorFor(entity HasComplianceFlags, actor string) string {
	if entity == nil {
		return actor
	}
	if stripped, _ := entity.ComplianceFlags(); stripped {
		return RedactedActor
	}
	return actor
}
