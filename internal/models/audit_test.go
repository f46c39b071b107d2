package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeAuditChanges(t *testing.T) {
	b, err := EncodeAuditChanges(CreatedAudit{Tier: TierAuto, AutoApproved: true})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, "auto", decoded["tier"])
	require.Equal(t, true, decoded["auto_approved"])

	impact := &Impact{DelayDays: 1, Cost: 2000}
	b, err = EncodeAuditChanges(ApprovedAudit{Reason: "ok", ModifiedImpact: impact})
	require.NoError(t, err)
	require.Contains(t, string(b), "modified_impact")

	// omitted when no adjustment was made
	b, err = EncodeAuditChanges(ApprovedAudit{})
	require.NoError(t, err)
	require.NotContains(t, string(b), "modified_impact")
}

func TestApprovalStatusTerminal(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.True(t, StatusApproved.Terminal())
	require.True(t, StatusRejected.Terminal())
	require.True(t, StatusAutoApproved.Terminal())
}

func TestHierarchyCanApprove(t *testing.T) {
	h := ApprovalHierarchy{CanApproveTypes: []ChangeType{CompensationEvent, BudgetChange}}
	require.True(t, h.CanApprove(CompensationEvent))
	require.False(t, h.CanApprove(ProgrammeChange))
}
