// internal/app/system/tenancy/resolver.go
package tenancy

// Terminology: Identifiers
//   - UID: the Google account subject; one UID has at most one membership
//   - Domain: the lower-cased text after the last "@" of the verified email

import (
	"context"
	"errors"
	"fmt"

	membershipstore "github.com/dalemusser/schoolsuite/internal/app/store/memberships"
	schoolstore "github.com/dalemusser/schoolsuite/internal/app/store/schools"
	"github.com/dalemusser/schoolsuite/internal/app/system/identity"
	"github.com/dalemusser/schoolsuite/internal/app/system/normalize"
	"github.com/dalemusser/schoolsuite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Collaborators                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// SchoolStore is the subset of the school store the resolver needs.
// Lookups return mongo.ErrNoDocuments when nothing matches.
type SchoolStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.School, error)
	GetByDomain(ctx context.Context, domain string) (models.School, error)
	Create(ctx context.Context, school models.School) (models.School, error)
}

// MembershipStore is the subset of the membership store the resolver needs.
type MembershipStore interface {
	GetByGoogleUID(ctx context.Context, uid string) (models.Membership, error)
	CountBySchool(ctx context.Context, schoolID primitive.ObjectID) (int64, error)
	Create(ctx context.Context, m models.Membership) (models.Membership, error)
	UpdateEmail(ctx context.Context, id primitive.ObjectID, email string) error
}

// StaffStore loads the optional staff profile linked to a membership.
type StaffStore interface {
	GetByID(ctx context.Context, schoolID, id primitive.ObjectID) (models.Staff, error)
}

// Transactor runs fn as one atomic unit when the database allows it.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

/*─────────────────────────────────────────────────────────────────────────────*
| Types                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// Claim is what the client asserts about itself alongside the credential.
type Claim struct {
	UID        string
	Email      string
	Name       string
	SchoolName string
	Role       string
}

// Result is the resolved tenant context for a signed-in account.
type Result struct {
	School     models.School
	Membership models.Membership
	Staff      *models.Staff

	SchoolCreated     bool
	MembershipCreated bool
	ContactSynced     bool
}

// Options configures a Resolver.
type Options struct {
	// WorkspaceDomain, when set, is the only domain allowed to sign in.
	WorkspaceDomain string
	// DefaultRole is given to new memberships that do not request a role.
	DefaultRole string
}

// Resolver maps a verified identity to its school and membership, creating
// both on first sign-in where allowed.
type Resolver struct {
	schools     SchoolStore
	memberships MembershipStore
	staff       StaffStore
	tx          Transactor
	opts        Options
	log         *zap.Logger
}

// NewResolver wires a Resolver. opts.DefaultRole falls back to admin.
func NewResolver(schools SchoolStore, memberships MembershipStore, staff StaffStore, tx Transactor, opts Options, logger *zap.Logger) *Resolver {
	opts.WorkspaceDomain = normalize.Domain(opts.WorkspaceDomain)
	opts.DefaultRole = normalize.Role(opts.DefaultRole)
	if !models.ValidRole(opts.DefaultRole) {
		opts.DefaultRole = models.RoleAdmin
	}
	return &Resolver{
		schools:     schools,
		memberships: memberships,
		staff:       staff,
		tx:          tx,
		opts:        opts,
		log:         logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Resolve                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// Resolve runs the sign-in decision procedure. Errors are either one of
// this package's sentinels/typed errors or a wrapped dependency failure.
func (r *Resolver) Resolve(ctx context.Context, verified identity.Identity, claim Claim) (Result, error) {
	domain, err := r.checkClaim(verified, claim)
	if err != nil {
		return Result{}, err
	}
	email := normalize.Email(verified.Email)

	// Returning account: the membership decides the school.
	res, found, err := r.existing(ctx, verified.UID, email, domain)
	if err != nil || found {
		return res, err
	}

	res, err = r.join(ctx, verified, claim, email, domain)
	// A lost race is retried once as a join; the retry's outcome is
	// classified the same way.
	for retried := false; ; retried = true {
		switch {
		case errors.Is(err, membershipstore.ErrDuplicateGoogleUID):
			// A concurrent sign-in for the same account won; use its membership.
			res, found, err = r.existing(ctx, verified.UID, email, domain)
			if err == nil && !found {
				err = fmt.Errorf("membership for uid vanished after conflict")
			}
			return res, err
		case errors.Is(err, membershipstore.ErrDuplicateEmail):
			return Result{}, ErrMembershipConflict
		case retried:
		case errors.Is(err, schoolstore.ErrDuplicateDomain):
			// Another caller created the school first; join it instead.
			res, err = r.join(ctx, verified, claim, email, domain)
			continue
		case isWriteConflict(err):
			// Concurrent transactions touched the same school or account.
			// Whichever committed is now visible.
			if res, found, err = r.existing(ctx, verified.UID, email, domain); err != nil || found {
				return res, err
			}
			res, err = r.join(ctx, verified, claim, email, domain)
			continue
		}
		return res, err
	}
}

// isWriteConflict reports whether err is a transaction aborted by a
// concurrent writer.
func isWriteConflict(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel("TransientTransactionError")
}

// checkClaim applies the consistency checks and returns the caller's domain.
func (r *Resolver) checkClaim(verified identity.Identity, claim Claim) (string, error) {
	if claim.UID != verified.UID {
		return "", ErrIdentityMismatch
	}
	if normalize.Email(claim.Email) != normalize.Email(verified.Email) {
		return "", ErrEmailMismatch
	}
	domain := normalize.EmailDomain(verified.Email)
	if domain == "" {
		return "", ErrDomainMissing
	}
	if r.opts.WorkspaceDomain != "" && domain != r.opts.WorkspaceDomain {
		return "", &DomainMismatchError{Expected: r.opts.WorkspaceDomain, Actual: domain}
	}
	return domain, nil
}

// existing looks up the membership for uid. found is false when the
// account has never signed in.
func (r *Resolver) existing(ctx context.Context, uid, email, domain string) (Result, bool, error) {
	m, err := r.memberships.GetByGoogleUID(ctx, uid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("load membership by uid: %w", err)
	}

	school, err := r.schools.GetByID(ctx, m.SchoolID)
	if err != nil {
		return Result{}, true, fmt.Errorf("load school %s: %w", m.SchoolID.Hex(), err)
	}
	if normalize.Domain(school.Domain) != domain {
		return Result{}, true, &DomainMismatchError{Expected: school.Domain, Actual: domain}
	}

	res := Result{School: school, Membership: m}
	if m.Email != email {
		if err := r.memberships.UpdateEmail(ctx, m.ID, email); err != nil {
			if errors.Is(err, membershipstore.ErrDuplicateEmail) {
				return Result{}, true, ErrMembershipConflict
			}
			return Result{}, true, fmt.Errorf("sync membership email: %w", err)
		}
		r.log.Info("membership email synced",
			zap.String("membership_id", m.ID.Hex()),
			zap.String("school_id", school.ID.Hex()))
		res.Membership.Email = email
		res.ContactSynced = true
	}

	staff, err := r.loadStaff(ctx, m)
	if err != nil {
		return Result{}, true, err
	}
	res.Staff = staff
	return res, true, nil
}

// join finds or creates the school for domain and creates the membership,
// as one transaction when the deployment supports it.
func (r *Resolver) join(ctx context.Context, verified identity.Identity, claim Claim, email, domain string) (Result, error) {
	schoolName := normalize.Name(claim.SchoolName)
	role := normalize.Role(claim.Role)
	if !models.ValidRole(role) {
		role = r.opts.DefaultRole
	}

	var res Result
	err := r.tx.Run(ctx, func(ctx context.Context) error {
		res = Result{}

		school, err := r.schools.GetByDomain(ctx, domain)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			if schoolName == "" {
				return &SchoolNotFoundError{Domain: domain}
			}
			school, err = r.schools.Create(ctx, models.School{Name: schoolName, Domain: domain})
			if err != nil {
				return fmt.Errorf("create school: %w", err)
			}
			res.SchoolCreated = true
		case err != nil:
			return fmt.Errorf("load school by domain: %w", err)
		}

		if !res.SchoolCreated {
			n, err := r.memberships.CountBySchool(ctx, school.ID)
			if err != nil {
				return fmt.Errorf("count memberships: %w", err)
			}
			if n > 0 && schoolName == "" {
				return ErrMembershipNotFound
			}
		}

		name := normalize.Name(claim.Name)
		if name == "" {
			name = verified.Name
		}
		m, err := r.memberships.Create(ctx, models.Membership{
			GoogleUID: verified.UID,
			Email:     email,
			Name:      name,
			Role:      role,
			SchoolID:  school.ID,
		})
		if err != nil {
			return fmt.Errorf("create membership: %w", err)
		}

		res.School = school
		res.Membership = m
		res.MembershipCreated = true
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	r.log.Info("membership created",
		zap.String("membership_id", res.Membership.ID.Hex()),
		zap.String("school_id", res.School.ID.Hex()),
		zap.String("domain", domain),
		zap.String("role", res.Membership.Role),
		zap.Bool("school_created", res.SchoolCreated))
	return res, nil
}

// loadStaff returns the linked staff profile, or nil when the membership has
// none or the link is stale.
func (r *Resolver) loadStaff(ctx context.Context, m models.Membership) (*models.Staff, error) {
	if m.StaffID == nil || r.staff == nil {
		return nil, nil
	}
	st, err := r.staff.GetByID(ctx, m.SchoolID, *m.StaffID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load staff profile: %w", err)
	}
	return &st, nil
}
