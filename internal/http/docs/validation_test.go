package docs

import (
	"context"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/rbac"
)

func loadSpec(t *testing.T) *openapi3.T {
	t.Helper()
	specBytes := GetSpecBytes()
	require.NotEmpty(t, specBytes, "embedded openapi.yaml is empty or was not loaded")

	doc, err := openapi3.NewLoader().LoadFromData(specBytes)
	require.NoError(t, err)
	return doc
}

func enumStrings(t *testing.T, doc *openapi3.T, schema string) []string {
	t.Helper()
	ref, ok := doc.Components.Schemas[schema]
	require.True(t, ok, "schema %s missing", schema)
	out := make([]string, 0, len(ref.Value.Enum))
	for _, v := range ref.Value.Enum {
		out = append(out, v.(string))
	}
	return out
}

func TestOpenAPISpecIsValid(t *testing.T) {
	doc := loadSpec(t)
	require.NoError(t, doc.Validate(context.Background()))
}

func TestOpenAPI_OperationsAreNamedAndSecured(t *testing.T) {
	doc := loadSpec(t)
	seen := map[string]string{}

	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			where := method + " " + path
			require.NotEmpty(t, op.OperationID, "%s has no operationId", where)
			if prev, dup := seen[op.OperationID]; dup {
				t.Errorf("operationId %q used by %s and %s", op.OperationID, prev, where)
			}
			seen[op.OperationID] = where

			if strings.HasPrefix(path, "/v1/") {
				assert.Nil(t, op.Security, "%s must inherit bearerAuth", where)
			}
		}
	}
	require.NotNil(t, doc.Components.SecuritySchemes["bearerAuth"])
}

func TestOpenAPI_EnumsMatchDomain(t *testing.T) {
	doc := loadSpec(t)

	perms := []string{string(domain.PermissionAll)}
	for _, p := range domain.AllPermissions {
		perms = append(perms, string(p))
	}
	assert.ElementsMatch(t, perms, enumStrings(t, doc, "Permission"))

	assert.ElementsMatch(t, []string{
		string(domain.DomainTypeWorkspace),
		string(domain.DomainTypeOffice),
		string(domain.DomainTypeRoom),
	}, enumStrings(t, doc, "DomainType"))

	decision := doc.Components.Schemas["Decision"]
	require.NotNil(t, decision)
	var reasons []string
	for _, v := range decision.Value.Properties["reason"].Value.Enum {
		reasons = append(reasons, v.(string))
	}
	assert.ElementsMatch(t, []string{
		string(rbac.ReasonAdmin),
		string(rbac.ReasonExplicitGrant),
		string(rbac.ReasonOwner),
		string(rbac.ReasonMemberRole),
		string(rbac.ReasonMemberRoleDenied),
		string(rbac.ReasonInheritedGrant),
		string(rbac.ReasonInheritedView),
		string(rbac.ReasonNoInheritance),
		string(rbac.ReasonDenied),
	}, reasons)
}
