package engine

import (
	"github.com/lucelabs/vessel/collection"
	"github.com/lucelabs/vessel/metadata"
)

// tenantIDKey is the reserved metadata key the tenant wrapper force-tags on
// every insert and force-conjoins into every query filter.
const tenantIDKey = "_tenant_id"

// TenantScope is the only sanctioned way to read or write a collection
// created with RequireTenant: true, and the recommended way to use any
// collection in a multi-tenant deployment. It enforces three guarantees
// regardless of what the caller's own metadata or filter contains:
//
//   - Insert always tags documents with this tenant's id, overriding any
//     caller-supplied _tenant_id.
//   - Query always conjoins {_tenant_id: {$eq: tenantID}} onto the caller's
//     filter, overriding any caller-supplied _tenant_id condition.
//   - Delete only removes documents this tenant actually owns; ids
//     belonging to another tenant, or absent entirely, are silently
//     skipped rather than erroring, since a foreign id is observationally
//     identical to a nonexistent one from this tenant's perspective.
type TenantScope struct {
	engine     *Engine
	collection string
	tenantID   string
}

// Tenant returns a TenantScope bound to collectionName and tenantID. It
// does not check that collectionName exists; that is deferred to the first
// operation, matching Insert/Query/Delete's own lazy lookup.
func (e *Engine) Tenant(collectionName, tenantID string) *TenantScope {
	return &TenantScope{engine: e, collection: collectionName, tenantID: tenantID}
}

// Insert force-tags every document with this tenant's id before storing it.
func (t *TenantScope) Insert(docs []InsertDoc) ([]string, error) {
	col, err := t.engine.getCollection(t.collection)
	if err != nil {
		return nil, err
	}

	tagged := make([]InsertDoc, len(docs))
	for i, d := range docs {
		meta := metadata.DocumentFromAny(d.Metadata).Merge(metadata.Document{
			tenantIDKey: metadata.String(t.tenantID),
		})
		tagged[i] = InsertDoc{ID: d.ID, Vector: d.Vector, Metadata: meta.Native(), TTL: d.TTL}
	}

	return t.engine.doInsert(t.actor(), col, t.collection, tagged)
}

// Query force-conjoins {_tenant_id: {$eq: tenantID}} onto opts.Filter before
// resolving it, so the caller cannot broaden the query beyond this tenant's
// own documents no matter what it passes as Filter.
func (t *TenantScope) Query(vector []float64, opts QueryOptions) (collection.QueryResult, error) {
	col, err := t.engine.getCollection(t.collection)
	if err != nil {
		return collection.QueryResult{}, err
	}

	filter, ferr := metadata.ParseFilter(opts.Filter)
	if ferr != nil {
		return collection.QueryResult{}, ferr
	}

	tenantFilter := metadata.Filter{
		tenantIDKey: {Eq: ptr(metadata.String(t.tenantID))},
	}
	filter = filter.And(tenantFilter)

	return t.engine.doQuery(t.actor(), col, t.collection, vector, filter, opts)
}

// Delete removes ids this tenant owns, silently skipping any id that is
// absent or belongs to another tenant.
func (t *TenantScope) Delete(ids []string) (int, error) {
	col, err := t.engine.getCollection(t.collection)
	if err != nil {
		return 0, err
	}

	owned := make([]string, 0, len(ids))
	for _, id := range ids {
		doc, ok := col.Get(id)
		if !ok {
			continue
		}

		tid, present := doc.Metadata[tenantIDKey]
		if present && tid.Kind == metadata.KindString && tid.S == t.tenantID {
			owned = append(owned, id)
		}
	}

	return t.engine.doDelete(t.actor(), col, t.collection, owned)
}

func (t *TenantScope) actor() string { return "tenant:" + t.tenantID }

func ptr[T any](v T) *T { return &v }
