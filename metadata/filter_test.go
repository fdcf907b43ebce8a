package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docs() []Document {
	return []Document{
		{"score": Int(10), "tag": String("fire")},
		{"score": Int(20), "tag": String("flood")},
		{"score": Int(30), "tag": String("fire")},
	}
}

func TestFilterOperatorsScenario(t *testing.T) {
	f, err := ParseFilter(map[string]any{"score": map[string]any{"$gte": 20}})
	require.NoError(t, err)

	count := 0
	for _, d := range docs() {
		if f.Matches(d) {
			count++
		}
	}
	assert.Equal(t, 2, count)

	f, err = ParseFilter(map[string]any{"tag": map[string]any{"$in": []any{"fire", "flood"}}})
	require.NoError(t, err)

	count = 0
	for _, d := range docs() {
		if f.Matches(d) {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestFilterBareScalarIsEquality(t *testing.T) {
	f, err := ParseFilter(map[string]any{"tag": "fire"})
	require.NoError(t, err)

	assert.True(t, f.Matches(Document{"tag": String("fire")}))
	assert.False(t, f.Matches(Document{"tag": String("flood")}))
}

func TestFilterMultipleOperatorsOnOneKeyAreANDed(t *testing.T) {
	f, err := ParseFilter(map[string]any{"score": map[string]any{"$gte": 10, "$lt": 20}})
	require.NoError(t, err)

	assert.True(t, f.Matches(Document{"score": Int(10)}))
	assert.False(t, f.Matches(Document{"score": Int(20)}))
	assert.False(t, f.Matches(Document{"score": Int(5)}))
}

func TestFilterMultipleKeysAreANDed(t *testing.T) {
	f, err := ParseFilter(map[string]any{"score": map[string]any{"$gte": 20}, "tag": "fire"})
	require.NoError(t, err)

	assert.False(t, f.Matches(Document{"score": Int(30), "tag": String("flood")}))
	assert.True(t, f.Matches(Document{"score": Int(30), "tag": String("fire")}))
}

func TestFilterAbsentKeyFailsNonExistsOperators(t *testing.T) {
	f, err := ParseFilter(map[string]any{"missing": map[string]any{"$gte": 1}})
	require.NoError(t, err)

	assert.False(t, f.Matches(Document{"present": Int(1)}))
}

func TestFilterExistsFalseMatchesAbsentKey(t *testing.T) {
	f, err := ParseFilter(map[string]any{"missing": map[string]any{"$exists": false}})
	require.NoError(t, err)

	assert.True(t, f.Matches(Document{"present": Int(1)}))
	assert.False(t, f.Matches(Document{"missing": Int(1)}))
}

func TestFilterUnknownOperatorErrors(t *testing.T) {
	_, err := ParseFilter(map[string]any{"score": map[string]any{"$bogus": 1}})
	require.Error(t, err)

	var ferr *ErrFilterError
	require.ErrorAs(t, err, &ferr)
}

func TestFilterAndOverridesOnCollision(t *testing.T) {
	base, err := ParseFilter(map[string]any{"_tenant_id": "attacker"})
	require.NoError(t, err)

	tenant, err := ParseFilter(map[string]any{"_tenant_id": "alpha"})
	require.NoError(t, err)

	merged := base.And(tenant)
	assert.True(t, merged.Matches(Document{"_tenant_id": String("alpha")}))
	assert.False(t, merged.Matches(Document{"_tenant_id": String("attacker")}))
}

func TestValueEqualCoercesNumericKinds(t *testing.T) {
	assert.True(t, Int(10).Equal(Float(10)))
}
