package tenancy_test

import (
	"context"
	"errors"
	"testing"

	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	schoolstore "github.com/dalemusser/schoolsuite/internal/app/store/schools"
	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/tenancy"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| In-memory collaborators                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

type memSchools struct {
	items     []models.School
	creates   int
	createErr error
}

func (s *memSchools) GetByID(_ context.Context, id primitive.ObjectID) (models.School, error) {
	for _, sc := range s.items {
		if sc.ID == id {
			return sc, nil
		}
	}
	return models.School{}, mongo.ErrNoDocuments
}

func (s *memSchools) GetByDomain(_ context.Context, domain string) (models.School, error) {
	for _, sc := range s.items {
		if sc.Domain == domain {
			return sc, nil
		}
	}
	return models.School{}, mongo.ErrNoDocuments
}

func (s *memSchools) Create(_ context.Context, sc models.School) (models.School, error) {
	if s.createErr != nil {
		err := s.createErr
		s.createErr = nil
		return models.School{}, err
	}
	s.creates++
	sc.ID = primitive.NewObjectID()
	s.items = append(s.items, sc)
	return sc, nil
}

type memMemberships struct {
	items        []models.Membership
	creates      int
	emailUpdates int
	// beforeCreate runs once before the next Create, simulating a racing request.
	beforeCreate func(*memMemberships) error
}

func (m *memMemberships) GetByGoogleUID(_ context.Context, uid string) (models.Membership, error) {
	for _, mm := range m.items {
		if mm.GoogleUID == uid {
			return mm, nil
		}
	}
	return models.Membership{}, mongo.ErrNoDocuments
}

func (m *memMemberships) CountBySchool(_ context.Context, schoolID primitive.ObjectID) (int64, error) {
	var n int64
	for _, mm := range m.items {
		if mm.SchoolID == schoolID {
			n++
		}
	}
	return n, nil
}

func (m *memMemberships) Create(_ context.Context, mm models.Membership) (models.Membership, error) {
	if hook := m.beforeCreate; hook != nil {
		m.beforeCreate = nil
		if err := hook(m); err != nil {
			return models.Membership{}, err
		}
	}
	for _, existing := range m.items {
		if existing.GoogleUID == mm.GoogleUID {
			return models.Membership{}, membershipstore.ErrDuplicateGoogleUID
		}
	}
	m.creates++
	mm.ID = primitive.NewObjectID()
	m.items = append(m.items, mm)
	return mm, nil
}

func (m *memMemberships) UpdateEmail(_ context.Context, id primitive.ObjectID, email string) error {
	for i := range m.items {
		if m.items[i].ID == id {
			m.items[i].Email = email
			m.emailUpdates++
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

type memStaff struct {
	items []models.Staff
}

func (s *memStaff) GetByID(_ context.Context, schoolID, id primitive.ObjectID) (models.Staff, error) {
	for _, st := range s.items {
		if st.ID == id && st.SchoolID == schoolID {
			return st, nil
		}
	}
	return models.Staff{}, mongo.ErrNoDocuments
}

type directTx struct{ runs int }

func (d *directTx) Run(ctx context.Context, fn func(context.Context) error) error {
	d.runs++
	return fn(ctx)
}

type fixture struct {
	schools     *memSchools
	memberships *memMemberships
	staff       *memStaff
	tx          *directTx
	resolver    *tenancy.Resolver
}

func newFixture(opts tenancy.Options) *fixture {
	f := &fixture{
		schools:     &memSchools{},
		memberships: &memMemberships{},
		staff:       &memStaff{},
		tx:          &directTx{},
	}
	f.resolver = tenancy.NewResolver(f.schools, f.memberships, f.staff, f.tx, opts, zap.NewNop())
	return f
}

func (f *fixture) writes() int {
	return f.schools.creates + f.memberships.creates + f.memberships.emailUpdates
}

func (f *fixture) seedSchool(name, domain string) models.School {
	sc := models.School{ID: primitive.NewObjectID(), Name: name, Domain: domain}
	f.schools.items = append(f.schools.items, sc)
	return sc
}

func (f *fixture) seedMembership(uid, email, role string, schoolID primitive.ObjectID) models.Membership {
	m := models.Membership{ID: primitive.NewObjectID(), GoogleUID: uid, Email: email, Role: role, SchoolID: schoolID}
	f.memberships.items = append(f.memberships.items, m)
	return m
}

func verified(uid, email string) identity.Identity {
	return identity.Identity{UID: uid, Email: email, Name: "Ada Lovelace"}
}

func claimFor(id identity.Identity) tenancy.Claim {
	return tenancy.Claim{UID: id.UID, Email: id.Email}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Consistency checks                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func TestResolve_IdentityMismatch_NoWrites(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "ada@school.edu")
	claim := tenancy.Claim{UID: "uid-2", Email: "ada@school.edu", SchoolName: "Greenfield"}

	_, err := f.resolver.Resolve(context.Background(), v, claim)
	if !errors.Is(err, tenancy.ErrIdentityMismatch) {
		t.Fatalf("expected ErrIdentityMismatch, got %v", err)
	}
	if f.writes() != 0 {
		t.Errorf("expected no writes, got %d", f.writes())
	}
	if f.tx.runs != 0 {
		t.Errorf("expected no transaction, got %d", f.tx.runs)
	}
}

func TestResolve_EmailMismatch(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "ada@school.edu")
	claim := tenancy.Claim{UID: "uid-1", Email: "someone@school.edu"}

	_, err := f.resolver.Resolve(context.Background(), v, claim)
	if !errors.Is(err, tenancy.ErrEmailMismatch) {
		t.Fatalf("expected ErrEmailMismatch, got %v", err)
	}
}

func TestResolve_EmailComparisonIgnoresCase(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	f.seedMembership("uid-1", "ada@school.edu", models.RoleAdmin, sc.ID)

	v := verified("uid-1", "Ada@School.EDU")
	claim := tenancy.Claim{UID: "uid-1", Email: " ADA@school.edu "}

	res, err := f.resolver.Resolve(context.Background(), v, claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ContactSynced {
		t.Error("expected no contact sync for a case-only difference")
	}
}

func TestResolve_DomainMissing(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "invalid-no-at")

	_, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if !errors.Is(err, tenancy.ErrDomainMissing) {
		t.Fatalf("expected ErrDomainMissing, got %v", err)
	}
	if tenancy.Code(err) != "DOMAIN_MISSING" {
		t.Errorf("Code = %q, want DOMAIN_MISSING", tenancy.Code(err))
	}
}

func TestResolve_WorkspaceDomainMismatch(t *testing.T) {
	f := newFixture(tenancy.Options{WorkspaceDomain: "Greenfield.EDU"})
	v := verified("uid-1", "ada@other.org")

	_, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	var dm *tenancy.DomainMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DomainMismatchError, got %v", err)
	}
	if dm.Expected != "greenfield.edu" || dm.Actual != "other.org" {
		t.Errorf("got expected=%q actual=%q", dm.Expected, dm.Actual)
	}
	if f.writes() != 0 {
		t.Errorf("expected no writes, got %d", f.writes())
	}
}

func TestResolve_WorkspaceDomainMatchIsCaseInsensitive(t *testing.T) {
	f := newFixture(tenancy.Options{WorkspaceDomain: "SCHOOL.edu"})
	v := verified("uid-1", "ada@School.Edu")
	claim := claimFor(v)
	claim.SchoolName = "Greenfield"

	if _, err := f.resolver.Resolve(context.Background(), v, claim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Existing membership                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

func TestResolve_ExistingMembership_ContactSyncOnce(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	f.seedMembership("uid-1", "old@school.edu", models.RoleStaff, sc.ID)

	v := verified("uid-1", "New@School.edu")

	res, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if !res.ContactSynced {
		t.Error("expected contact sync on first call")
	}
	if res.Membership.Email != "new@school.edu" {
		t.Errorf("email = %q, want new@school.edu", res.Membership.Email)
	}

	res2, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if res2.ContactSynced {
		t.Error("expected no contact sync on second call")
	}
	if f.memberships.emailUpdates != 1 {
		t.Errorf("email updates = %d, want 1", f.memberships.emailUpdates)
	}
	if f.memberships.creates != 0 || f.schools.creates != 0 {
		t.Errorf("expected no creates, got memberships=%d schools=%d", f.memberships.creates, f.schools.creates)
	}
	if len(f.memberships.items) != 1 {
		t.Errorf("memberships = %d, want 1", len(f.memberships.items))
	}
}

func TestResolve_ExistingMembership_DomainChanged(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	f.seedMembership("uid-1", "ada@school.edu", models.RoleAdmin, sc.ID)

	v := verified("uid-1", "ada@newschool.edu")
	_, err := f.resolver.Resolve(context.Background(), v, claimFor(v))

	var dm *tenancy.DomainMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DomainMismatchError, got %v", err)
	}
	if dm.Expected != "school.edu" || dm.Actual != "newschool.edu" {
		t.Errorf("got expected=%q actual=%q", dm.Expected, dm.Actual)
	}
	if f.writes() != 0 {
		t.Errorf("expected no writes, got %d", f.writes())
	}
}

func TestResolve_ExistingMembership_LoadsStaff(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	st := models.Staff{ID: primitive.NewObjectID(), SchoolID: sc.ID, FullName: "Ada Lovelace", Position: "Teacher"}
	f.staff.items = append(f.staff.items, st)
	m := f.seedMembership("uid-1", "ada@school.edu", models.RoleStaff, sc.ID)
	f.memberships.items[0].StaffID = &st.ID

	v := verified("uid-1", "ada@school.edu")
	res, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Membership.ID != m.ID {
		t.Errorf("membership = %s, want %s", res.Membership.ID.Hex(), m.ID.Hex())
	}
	if res.Staff == nil || res.Staff.ID != st.ID {
		t.Errorf("expected staff %s, got %+v", st.ID.Hex(), res.Staff)
	}
}

func TestResolve_ExistingMembership_StaleStaffLink(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	f.seedMembership("uid-1", "ada@school.edu", models.RoleStaff, sc.ID)
	gone := primitive.NewObjectID()
	f.memberships.items[0].StaffID = &gone

	v := verified("uid-1", "ada@school.edu")
	res, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Staff != nil {
		t.Errorf("expected nil staff, got %+v", res.Staff)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| School resolution and first membership                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func TestResolve_SchoolNotFound_CreatesNothing(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "ada@unknown.edu")

	_, err := f.resolver.Resolve(context.Background(), v, claimFor(v))

	var snf *tenancy.SchoolNotFoundError
	if !errors.As(err, &snf) {
		t.Fatalf("expected SchoolNotFoundError, got %v", err)
	}
	if snf.Domain != "unknown.edu" {
		t.Errorf("domain = %q, want unknown.edu", snf.Domain)
	}
	if f.writes() != 0 {
		t.Errorf("expected no writes, got %d", f.writes())
	}
	if tenancy.Code(err) != "SCHOOL_NOT_FOUND" {
		t.Errorf("Code = %q", tenancy.Code(err))
	}
}

func TestResolve_NewSchool_DefaultsToAdmin(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "Ada@Greenfield.EDU")
	claim := claimFor(v)
	claim.SchoolName = "  Greenfield   High "

	res, err := f.resolver.Resolve(context.Background(), v, claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.SchoolCreated || !res.MembershipCreated {
		t.Errorf("flags = %+v", res)
	}
	if res.School.Name != "Greenfield High" || res.School.Domain != "greenfield.edu" {
		t.Errorf("school = %+v", res.School)
	}
	if res.Membership.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", res.Membership.Role)
	}
	if res.Membership.Email != "ada@greenfield.edu" {
		t.Errorf("email = %q, want lower-case", res.Membership.Email)
	}
	if res.Membership.SchoolID != res.School.ID {
		t.Error("membership not linked to the created school")
	}
	if f.tx.runs != 1 {
		t.Errorf("transaction runs = %d, want 1", f.tx.runs)
	}
}

func TestResolve_ConfiguredDefaultRole(t *testing.T) {
	f := newFixture(tenancy.Options{DefaultRole: "staff"})
	v := verified("uid-1", "ada@greenfield.edu")
	claim := claimFor(v)
	claim.SchoolName = "Greenfield"

	res, err := f.resolver.Resolve(context.Background(), v, claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Membership.Role != models.RoleStaff {
		t.Errorf("role = %q, want staff", res.Membership.Role)
	}
}

func TestResolve_EmptySchoolJoinsWithoutName(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	v := verified("uid-1", "ada@school.edu")

	res, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SchoolCreated {
		t.Error("did not expect a school to be created")
	}
	if res.School.ID != sc.ID {
		t.Errorf("school = %s, want %s", res.School.ID.Hex(), sc.ID.Hex())
	}
}

func TestResolve_SchoolWithMembersRequiresName(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	f.seedMembership("uid-staff", "clerk@school.edu", models.RoleStaff, sc.ID)

	v := verified("uid-1", "ada@school.edu")
	_, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if !errors.Is(err, tenancy.ErrMembershipNotFound) {
		t.Fatalf("expected ErrMembershipNotFound, got %v", err)
	}
	if f.memberships.creates != 0 {
		t.Errorf("creates = %d, want 0", f.memberships.creates)
	}
}

func TestResolve_SchoolWithMembersJoinsWithName(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	f.seedMembership("uid-admin", "head@school.edu", models.RoleAdmin, sc.ID)

	v := verified("uid-1", "ada@school.edu")
	claim := claimFor(v)
	claim.SchoolName = "Ignored Name"
	claim.Role = "Staff"

	res, err := f.resolver.Resolve(context.Background(), v, claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.School.Name != "Greenfield" {
		t.Errorf("school name changed to %q", res.School.Name)
	}
	if res.Membership.Role != models.RoleStaff {
		t.Errorf("role = %q, want staff", res.Membership.Role)
	}
	if f.schools.creates != 0 {
		t.Errorf("school creates = %d, want 0", f.schools.creates)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Races                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

func TestResolve_ConcurrentMembershipCreate_ReturnsWinner(t *testing.T) {
	f := newFixture(tenancy.Options{})
	sc := f.seedSchool("Greenfield", "school.edu")
	v := verified("uid-1", "ada@school.edu")

	var winner models.Membership
	f.memberships.beforeCreate = func(m *memMemberships) error {
		winner = models.Membership{ID: primitive.NewObjectID(), GoogleUID: "uid-1", Email: "ada@school.edu", Role: models.RoleAdmin, SchoolID: sc.ID}
		m.items = append(m.items, winner)
		return nil
	}

	res, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Membership.ID != winner.ID {
		t.Errorf("membership = %s, want winner %s", res.Membership.ID.Hex(), winner.ID.Hex())
	}
	if res.MembershipCreated {
		t.Error("loser should not report a created membership")
	}
	if len(f.memberships.items) != 1 {
		t.Errorf("memberships = %d, want 1", len(f.memberships.items))
	}
}

func TestResolve_ConcurrentSchoolCreate_JoinsWinner(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "ada@school.edu")
	claim := claimFor(v)
	claim.SchoolName = "Greenfield"

	// GetByDomain misses, Create loses the race to winner, and the second
	// attempt finds the winner's school.
	winner := models.School{ID: primitive.NewObjectID(), Name: "Greenfield", Domain: "school.edu"}
	f.schools.createErr = schoolstore.ErrDuplicateDomain
	racing := &racingSchools{memSchools: f.schools, winner: winner}
	f.resolver = tenancy.NewResolver(racing, f.memberships, f.staff, f.tx, tenancy.Options{}, zap.NewNop())

	res, err := f.resolver.Resolve(context.Background(), v, claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.School.ID != winner.ID {
		t.Errorf("school = %s, want winner %s", res.School.ID.Hex(), winner.ID.Hex())
	}
	if res.SchoolCreated {
		t.Error("loser should not report a created school")
	}
	if f.tx.runs != 2 {
		t.Errorf("transaction runs = %d, want 2", f.tx.runs)
	}
}

// racingSchools inserts winner when Create is first called and reports a
// duplicate domain, as the unique index would.
type racingSchools struct {
	*memSchools
	winner models.School
}

func (r *racingSchools) Create(ctx context.Context, sc models.School) (models.School, error) {
	if r.memSchools.createErr != nil {
		r.memSchools.items = append(r.memSchools.items, r.winner)
	}
	return r.memSchools.Create(ctx, sc)
}

func TestResolve_DuplicateEmailInSchool(t *testing.T) {
	f := newFixture(tenancy.Options{})
	f.seedSchool("Greenfield", "school.edu")
	v := verified("uid-1", "ada@school.edu")
	f.memberships.beforeCreate = func(*memMemberships) error {
		return membershipstore.ErrDuplicateEmail
	}

	_, err := f.resolver.Resolve(context.Background(), v, claimFor(v))
	if !errors.Is(err, tenancy.ErrMembershipConflict) {
		t.Fatalf("expected ErrMembershipConflict, got %v", err)
	}
}

func TestResolve_SchoolRaceThenDuplicateEmail(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "ada@school.edu")
	claim := claimFor(v)
	claim.SchoolName = "Greenfield"

	winner := models.School{ID: primitive.NewObjectID(), Name: "Greenfield", Domain: "school.edu"}
	f.schools.createErr = schoolstore.ErrDuplicateDomain
	racing := &racingSchools{memSchools: f.schools, winner: winner}
	f.memberships.beforeCreate = func(*memMemberships) error {
		return membershipstore.ErrDuplicateEmail
	}
	f.resolver = tenancy.NewResolver(racing, f.memberships, f.staff, f.tx, tenancy.Options{}, zap.NewNop())

	_, err := f.resolver.Resolve(context.Background(), v, claim)
	if !errors.Is(err, tenancy.ErrMembershipConflict) {
		t.Fatalf("expected ErrMembershipConflict, got %v", err)
	}
	if tenancy.Code(err) != "MEMBERSHIP_CONFLICT" {
		t.Errorf("Code = %q", tenancy.Code(err))
	}
}

func TestResolve_SchoolRaceThenMembershipRace_ReturnsWinner(t *testing.T) {
	f := newFixture(tenancy.Options{})
	v := verified("uid-1", "ada@school.edu")
	claim := claimFor(v)
	claim.SchoolName = "Greenfield"

	winner := models.School{ID: primitive.NewObjectID(), Name: "Greenfield", Domain: "school.edu"}
	f.schools.createErr = schoolstore.ErrDuplicateDomain
	racing := &racingSchools{memSchools: f.schools, winner: winner}
	var member models.Membership
	f.memberships.beforeCreate = func(m *memMemberships) error {
		member = models.Membership{ID: primitive.NewObjectID(), GoogleUID: "uid-1", Email: "ada@school.edu", Role: models.RoleAdmin, SchoolID: winner.ID}
		m.items = append(m.items, member)
		return nil
	}
	f.resolver = tenancy.NewResolver(racing, f.memberships, f.staff, f.tx, tenancy.Options{}, zap.NewNop())

	res, err := f.resolver.Resolve(context.Background(), v, claim)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Membership.ID != member.ID || res.School.ID != winner.ID {
		t.Errorf("got membership %s school %s, want %s %s",
			res.Membership.ID.Hex(), res.School.ID.Hex(), member.ID.Hex(), winner.ID.Hex())
	}
	if res.MembershipCreated || res.SchoolCreated {
		t.Error("loser should not report created records")
	}
}

func TestCode_Unknown(t *testing.T) {
	if got := tenancy.Code(errors.New("boom")); got != "" {
		t.Errorf("Code = %q, want empty", got)
	}
	if got := tenancy.Code(&tenancy.DomainMismatchError{Expected: "a", Actual: "b"}); got != "DOMAIN_MISMATCH" {
		t.Errorf("Code = %q, want DOMAIN_MISMATCH", got)
	}
}
