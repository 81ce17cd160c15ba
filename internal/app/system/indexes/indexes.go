// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called from EnsureSchema at startup. Every index set is
idempotent. Problems are aggregated so each one is visible and startup
fails fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string
	for _, set := range indexSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models, logger); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type indexSet struct {
	collection string
	models     []mongo.IndexModel
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniq(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true).SetName(name)}
}

// tenantList is the index every record list uses: school scope, then the
// list's sort order.
func tenantList(name, sortField string) mongo.IndexModel {
	return idx(name, bson.D{{Key: "school_id", Value: 1}, {Key: sortField, Value: -1}})
}

// tenantSearch backs the prefix search on a folded field.
func tenantSearch(name, ciField string) mongo.IndexModel {
	return idx(name, bson.D{{Key: "school_id", Value: 1}, {Key: ciField, Value: 1}})
}

func indexSets() []indexSet {
	return []indexSet{
		{"schools", []mongo.IndexModel{
			// One school per Workspace domain. Concurrent first sign-ins from
			// the same domain rely on this.
			uniq("uniq_schools_domain", bson.D{{Key: "domain", Value: 1}}),
			idx("idx_schools_nameci", bson.D{{Key: "name_ci", Value: 1}}),
		}},
		{"memberships", []mongo.IndexModel{
			uniq(membershipstore.IndexGoogleUID, bson.D{{Key: "google_uid", Value: 1}}),
			uniq(membershipstore.IndexSchoolEmail, bson.D{{Key: "school_id", Value: 1}, {Key: "email", Value: 1}}),
			// Staff deletion unlinks by (school, staff).
			idx("idx_memberships_school_staff", bson.D{{Key: "school_id", Value: 1}, {Key: "staff_id", Value: 1}}),
		}},
		{"staff", []mongo.IndexModel{
			tenantList("idx_staff_school_created", "created_at"),
			tenantSearch("idx_staff_school_fullnameci", "full_name_ci"),
		}},
		{"students", []mongo.IndexModel{
			tenantList("idx_students_school_created", "created_at"),
			tenantSearch("idx_students_school_fullnameci", "full_name_ci"),
		}},
		{"financial_entries", []mongo.IndexModel{
			tenantList("idx_finances_school_date", "date"),
			tenantSearch("idx_finances_school_categoryci", "category_ci"),
		}},
		{"payroll_records", []mongo.IndexModel{
			tenantList("idx_payroll_school_period", "period"),
			tenantSearch("idx_payroll_school_staffnameci", "staff_name_ci"),
			idx("idx_payroll_school_staff", bson.D{{Key: "school_id", Value: 1}, {Key: "staff_id", Value: 1}}),
		}},
		{"events", []mongo.IndexModel{
			tenantList("idx_events_school_starts", "starts_at"),
			tenantSearch("idx_events_school_titleci", "title_ci"),
		}},
		{"library_assets", []mongo.IndexModel{
			tenantList("idx_library_school_created", "created_at"),
			tenantSearch("idx_library_school_titleci", "title_ci"),
		}},
		{"questions", []mongo.IndexModel{
			tenantList("idx_questions_school_created", "created_at"),
			tenantSearch("idx_questions_school_subjectci", "subject_ci"),
		}},
		{"performance_records", []mongo.IndexModel{
			tenantList("idx_performance_school_created", "created_at"),
			tenantSearch("idx_performance_school_studentnameci", "student_name_ci"),
			idx("idx_performance_school_student_created", bson.D{
				{Key: "school_id", Value: 1},
				{Key: "student_id", Value: 1},
				{Key: "created_at", Value: -1},
			}),
		}},
		{"audit_events", []mongo.IndexModel{
			tenantList("idx_audit_school_timestamp", "timestamp"),
			idx("idx_audit_school_category_type_timestamp", bson.D{
				{Key: "school_id", Value: 1},
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			}),
			idx("idx_audit_membership_timestamp", bson.D{{Key: "membership_id", Value: 1}, {Key: "timestamp", Value: -1}}),
		}},
		{"oauth_states", []mongo.IndexModel{
			uniq("uniq_oauth_states_state", bson.D{{Key: "state", Value: 1}}),
			{
				Keys:    bson.D{{Key: "expires_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_states_expires"),
			},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Mongo/DocDB return IndexOptionsConflict when the same keys already exist
// under a different name or with different options.
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		existing[keySig(ix.Key)] = ix
	}
	return existing
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, logger *zap.Logger) error {
	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, coll, m, logger); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureOne(ctx context.Context, coll *mongo.Collection, m mongo.IndexModel, logger *zap.Logger) error {
	var name string
	var unique *bool
	if m.Options != nil {
		if m.Options.Name != nil {
			name = *m.Options.Name
		}
		unique = m.Options.Unique
	}
	sig := keySig(m.Keys.(bson.D))
	start := time.Now()
	log := logger.With(
		zap.String("collection", coll.Name()),
		zap.String("name", name),
		zap.String("keys", sig),
		zap.Bool("unique", unique != nil && *unique),
	)

	ex, found := listExisting(ctx, coll, logger)[sig]
	if !found {
		_, err := coll.Indexes().CreateOne(ctx, m)
		if err == nil {
			log.Info("index ensured", zap.Duration("took", time.Since(start)))
			return nil
		}
		if !isOptionsConflictErr(err) {
			log.Warn("index ensure failed", zap.Error(err))
			return createErr(coll, name, unique, err)
		}
		// Lost a race with another instance, or the key listing missed it.
		if ex, found = listExisting(ctx, coll, logger)[sig]; !found {
			log.Warn("index ensure failed", zap.Error(err))
			return createErr(coll, name, unique, err)
		}
	}

	if sameBoolPtr(unique, ex.Unique) && (name == "" || ex.Name == name) {
		log.Info("reusing existing index", zap.Duration("took", time.Since(start)))
		return nil
	}

	// Name or uniqueness differs: drop and recreate.
	if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
		log.Warn("drop existing index failed", zap.String("existing", ex.Name), zap.Error(err))
		return fmt.Errorf("%s(%s): drop failed: %v", coll.Name(), name, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
		log.Warn("recreate index failed", zap.Error(err))
		return createErr(coll, name, unique, err)
	}
	log.Info("index dropped and recreated",
		zap.String("previous", ex.Name),
		zap.Duration("took", time.Since(start)))
	return nil
}

func createErr(coll *mongo.Collection, name string, unique *bool, err error) error {
	if wafflemongo.IsDup(err) && unique != nil && *unique {
		return fmt.Errorf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name)
	}
	return fmt.Errorf("%s(%s): %v", coll.Name(), name, err)
}
