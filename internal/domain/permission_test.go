package domain

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionSet_Has(t *testing.T) {
	set := NewPermissionSet(PermissionViewContent, PermissionViewContent, PermissionSendMessages)

	assert.Len(t, set, 2)
	assert.True(t, set.Has(PermissionViewContent))
	assert.False(t, set.Has(PermissionDeleteOffice))

	wildcard := NewPermissionSet(PermissionAll)
	for _, p := range AllPermissions {
		assert.True(t, wildcard.Has(p), "wildcard should satisfy %s", p)
	}

	var empty PermissionSet
	assert.False(t, empty.Has(PermissionViewContent))
}

func TestPermissionSet_SetAlgebra(t *testing.T) {
	a := NewPermissionSet(PermissionViewContent, PermissionEditContent)
	b := NewPermissionSet(PermissionEditContent, PermissionSendMessages)

	assert.True(t, a.Union(b).Equal(NewPermissionSet(PermissionViewContent, PermissionEditContent, PermissionSendMessages)))
	assert.True(t, a.Subtract(b).Equal(NewPermissionSet(PermissionViewContent)))

	// Inputs are not mutated.
	assert.Len(t, a, 2)
	assert.Len(t, b, 2)
}

func TestPermissionOp_Apply(t *testing.T) {
	current := NewPermissionSet(PermissionViewContent, PermissionEditContent)
	perms := NewPermissionSet(PermissionEditContent, PermissionUploadFiles)

	assert.True(t, PermissionOpAdd.Apply(current, perms).Equal(
		NewPermissionSet(PermissionViewContent, PermissionEditContent, PermissionUploadFiles)))
	assert.True(t, PermissionOpRemove.Apply(current, perms).Equal(
		NewPermissionSet(PermissionViewContent)))
	assert.True(t, PermissionOpSet.Apply(current, perms).Equal(perms))

	assert.False(t, PermissionOp("merge").IsValid())
}

func TestPermissionSet_EncodesSorted(t *testing.T) {
	set := NewPermissionSet(PermissionSendMessages, PermissionAddUsers, PermissionViewContent)

	data, err := json.Marshal(set)
	require.NoError(t, err)
	assert.Equal(t, `["add_users","send_messages","view_content"]`, string(data))

	var decoded PermissionSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, set.Equal(decoded))

	raw, err := cbor.Marshal(set)
	require.NoError(t, err)
	var fromCBOR PermissionSet
	require.NoError(t, cbor.Unmarshal(raw, &fromCBOR))
	assert.True(t, set.Equal(fromCBOR))
}

func TestPermissionSet_RejectsUnknown(t *testing.T) {
	var decoded PermissionSet
	err := json.Unmarshal([]byte(`["view_content","fly"]`), &decoded)
	assert.Error(t, err)

	_, err = ParsePermission("fly")
	assert.Error(t, err)
}
