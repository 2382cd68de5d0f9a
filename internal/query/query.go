// Package query turns request query strings into MongoDB find queries.
//
// A Features value accumulates a predicate, sort order, projection and page
// window from url.Values, checked against a per-resource Schema. Nothing is
// sent to the database until Execute.
package query

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"natours/internal/apperrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Kind int

const (
	String Kind = iota
	Number
	Bool
	Date
	ObjectID
)

// Schema whitelists the fields a resource exposes to filtering, sorting and
// projection, with the kind filter values are coerced to.
type Schema map[string]Kind

const (
	DefaultPage  = 1
	DefaultLimit = 100
	MaxLimit     = DefaultLimit
	DefaultSort  = "-createdAt"
)

var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Finder is the part of *mongo.Collection that Execute needs.
type Finder interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

type Features struct {
	params     url.Values
	schema     Schema
	filter     bson.M
	scopes     []bson.M
	sort       bson.D
	projection bson.M
	skip       int64
	limit      int64
	err        error
}

func New(params url.Values, schema Schema) *Features {
	if params == nil {
		params = url.Values{}
	}
	return &Features{params: params, schema: schema}
}

// Filter applies field=value and field[op]=value conditions.
func (f *Features) Filter() *Features {
	if f.err != nil {
		return f
	}

	keys := make([]string, 0, len(f.params))
	for k := range f.params {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	fields := bson.M{}
	for _, key := range keys {
		field, op, err := parseKey(key)
		if err != nil {
			f.err = err
			return f
		}
		kind, ok := f.schema[field]
		if !ok {
			f.err = apperrors.NewValidationError(fmt.Sprintf("Unknown filter field: %s", field))
			return f
		}

		values := make([]interface{}, 0, len(f.params[key]))
		for _, raw := range f.params[key] {
			v, err := coerce(field, kind, raw)
			if err != nil {
				f.err = err
				return f
			}
			values = append(values, v)
		}

		cond, _ := fields[field].(bson.M)
		if cond == nil {
			cond = bson.M{}
			fields[field] = cond
		}
		switch {
		case op != "":
			cond[op] = values[len(values)-1]
		case len(values) == 1:
			cond["$eq"] = values[0]
		default:
			cond["$in"] = values
		}
	}

	for field, c := range fields {
		cond := c.(bson.M)
		if eq, ok := cond["$eq"]; ok && len(cond) == 1 {
			fields[field] = eq
		}
	}

	f.filter = fields
	return f
}

// Sort applies a comma separated list of fields, "-" prefix for descending.
// _id is always the final key so pages are stable.
func (f *Features) Sort() *Features {
	if f.err != nil {
		return f
	}

	raw := strings.Join(f.params["sort"], ",")
	if strings.TrimSpace(raw) == "" {
		raw = DefaultSort
	}

	var order bson.D
	hasID := false
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir = -1
			part = part[1:]
		}
		if !f.allowed(part) {
			f.err = apperrors.NewValidationError(fmt.Sprintf("Unknown sort field: %s", part))
			return f
		}
		if part == "_id" {
			hasID = true
		}
		order = append(order, bson.E{Key: part, Value: dir})
	}
	if !hasID {
		order = append(order, bson.E{Key: "_id", Value: 1})
	}

	f.sort = order
	return f
}

// LimitFields projects the requested fields, or hides __v by default.
func (f *Features) LimitFields() *Features {
	if f.err != nil {
		return f
	}

	raw := strings.Join(f.params["fields"], ",")
	if strings.TrimSpace(raw) == "" {
		f.projection = bson.M{"__v": 0}
		return f
	}

	projection := bson.M{}
	mode := 0
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		include := 1
		if strings.HasPrefix(part, "-") {
			include = 0
			part = part[1:]
		}
		if !f.allowed(part) {
			f.err = apperrors.NewValidationError(fmt.Sprintf("Unknown field: %s", part))
			return f
		}
		// Mongo rejects mixed inclusion and exclusion, except for _id.
		if part != "_id" {
			if mode != 0 && mode != include+1 {
				f.err = apperrors.NewValidationError("Cannot mix included and excluded fields")
				return f
			}
			mode = include + 1
		}
		projection[part] = include
	}

	f.projection = projection
	return f
}

// Paginate reads page and limit; anything not a positive integer falls
// back to the defaults. limit is capped at MaxLimit.
func (f *Features) Paginate() *Features {
	if f.err != nil {
		return f
	}

	page := positiveInt(f.params.Get("page"), DefaultPage)
	limit := positiveInt(f.params.Get("limit"), DefaultLimit)
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if int64(page-1) > math.MaxInt64/int64(limit) {
		f.err = apperrors.NewValidationError(fmt.Sprintf("Page out of range: %d", page))
		return f
	}

	f.skip = int64(page-1) * int64(limit)
	f.limit = int64(limit)
	return f
}

// Scope ANDs a server-side condition onto the predicate.
func (f *Features) Scope(cond bson.M) *Features {
	if len(cond) > 0 {
		f.scopes = append(f.scopes, cond)
	}
	return f
}

func (f *Features) Err() error {
	return f.err
}

// Predicate returns the combined filter document.
func (f *Features) Predicate() bson.M {
	conds := make([]bson.M, 0, len(f.scopes)+1)
	if len(f.filter) > 0 {
		conds = append(conds, f.filter)
	}
	conds = append(conds, f.scopes...)

	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return conds[0]
	default:
		and := make(bson.A, 0, len(conds))
		for _, c := range conds {
			and = append(and, c)
		}
		return bson.M{"$and": and}
	}
}

func (f *Features) FindOptions() *options.FindOptions {
	opts := options.Find()
	if f.sort != nil {
		opts.SetSort(f.sort)
	}
	if f.projection != nil {
		opts.SetProjection(f.projection)
	}
	if f.limit > 0 {
		opts.SetSkip(f.skip).SetLimit(f.limit)
	}
	return opts
}

// Execute runs the accumulated query and decodes every document into results,
// which must be a pointer to a slice.
func (f *Features) Execute(ctx context.Context, coll Finder, results interface{}) error {
	if f.err != nil {
		return f.err
	}

	cursor, err := coll.Find(ctx, f.Predicate(), f.FindOptions())
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, results); err != nil {
		return fmt.Errorf("failed to decode query results: %w", err)
	}
	return nil
}

func (f *Features) allowed(field string) bool {
	if field == "_id" {
		return true
	}
	_, ok := f.schema[field]
	return ok
}

func parseKey(key string) (field, op string, err error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "", nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("Malformed filter: %s", key))
	}

	field = key[:open]
	name := key[open+1 : len(key)-1]
	op, ok := operators[name]
	if !ok {
		return "", "", apperrors.NewValidationError(fmt.Sprintf("Unsupported operator [%s] on %s", name, field))
	}
	return field, op, nil
}

func coerce(field string, kind Kind, raw string) (interface{}, error) {
	invalid := func() error {
		return apperrors.NewValidationError(fmt.Sprintf("Invalid value for %s: %s", field, raw))
	}

	switch kind {
	case Number:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, invalid()
		}
		return v, nil
	case Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, invalid()
		}
		return v, nil
	case Date:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if v, err := time.Parse(layout, raw); err == nil {
				return v, nil
			}
		}
		return nil, invalid()
	case ObjectID:
		v, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, invalid()
		}
		return v, nil
	default:
		return raw, nil
	}
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
