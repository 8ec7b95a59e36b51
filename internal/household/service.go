// Package household owns the membership rules: every user belongs to exactly
// one household, and moving between households happens in one transaction.
package household

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukerupert/mealplan/internal/apperr"
	"github.com/dukerupert/mealplan/internal/auth"
	"github.com/dukerupert/mealplan/internal/model"
	"github.com/dukerupert/mealplan/internal/store"
	"github.com/dukerupert/mealplan/internal/validate"
)

// Notifier delivers invite notifications. It is optional.
type Notifier interface {
	Configured() bool
	SendInvite(ctx context.Context, toEmail, householdName, inviterName string) error
}

type Service struct {
	db       *sql.DB
	notifier Notifier
	logger   *slog.Logger
}

func NewService(db *sql.DB, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, notifier: notifier, logger: logger}
}

var errNoHousehold = apperr.New(apperr.NotFound, "No household found")

func membership(ctx context.Context, db store.DBTX, userID int64) (*model.HouseholdMember, error) {
	m, err := store.NewHouseholdStore(db).GetMembershipByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errNoHousehold
	}
	return m, nil
}

func requireOwner(ctx context.Context, db store.DBTX, userID int64, action string) (*model.HouseholdMember, error) {
	m, err := membership(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if m.Role != model.RoleOwner {
		return nil, apperr.New(apperr.Forbidden, "Only the owner can "+action)
	}
	return m, nil
}

// Membership returns the caller's membership.
func (s *Service) Membership(ctx context.Context, id auth.Identity) (*model.HouseholdMember, error) {
	m, err := membership(ctx, s.db, id.UserID)
	if err != nil {
		return nil, apperr.Propagate(err, "failed to load household")
	}
	return m, nil
}

// Provision returns the user for email, creating the user together with a
// household they own on first sign-in. A changed display name is saved.
func (s *Service) Provision(ctx context.Context, email, name string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	var user *model.User
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := store.NewUserStore(tx)
		households := store.NewHouseholdStore(tx)

		existing, err := users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			user = existing
			if name != "" && name != existing.Name {
				if user, err = users.UpdateName(ctx, existing.ID, name); err != nil {
					return err
				}
			}
			m, err := households.GetMembershipByUser(ctx, user.ID)
			if err != nil || m != nil {
				return err
			}
			// A user without a membership gets a fresh household.
			return createOwnedHousehold(ctx, tx, user)
		}

		if user, err = users.Create(ctx, email, name); err != nil {
			return err
		}
		return createOwnedHousehold(ctx, tx, user)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to provision user")
	}
	return user, nil
}

func createOwnedHousehold(ctx context.Context, tx *sql.Tx, user *model.User) error {
	households := store.NewHouseholdStore(tx)
	h, err := households.Create(ctx, model.DefaultHouseholdName(user.Name))
	if err != nil {
		return err
	}
	_, err = households.AddMember(ctx, h.ID, user.ID, model.RoleOwner)
	return err
}

// Get returns the caller's household with its members and open invites.
func (s *Service) Get(ctx context.Context, id auth.Identity) (*model.HouseholdDetail, error) {
	m, err := membership(ctx, s.db, id.UserID)
	if err != nil {
		return nil, apperr.Propagate(err, "failed to load household")
	}
	detail, err := s.detail(ctx, s.db, m.HouseholdID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to load household")
	}
	return detail, nil
}

func (s *Service) detail(ctx context.Context, db store.DBTX, householdID int64) (*model.HouseholdDetail, error) {
	h, err := store.NewHouseholdStore(db).GetByID(ctx, householdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errNoHousehold
	}
	members, err := store.NewHouseholdStore(db).ListMembers(ctx, householdID)
	if err != nil {
		return nil, err
	}
	invites, err := store.NewInviteStore(db).ListActiveForHousehold(ctx, householdID)
	if err != nil {
		return nil, err
	}
	return &model.HouseholdDetail{Household: *h, Members: members, Invites: invites}, nil
}

// Rename changes the household name. Only the owner may do this.
func (s *Service) Rename(ctx context.Context, id auth.Identity, name string) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.Validation, "Name is required")
	}
	m, err := requireOwner(ctx, s.db, id.UserID, "update the household name")
	if err != nil {
		return nil, apperr.Propagate(err, "failed to rename household")
	}
	h, err := store.NewHouseholdStore(s.db).Update(ctx, m.HouseholdID, name)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to rename household")
	}
	return h, nil
}

// CreateInvite invites email to the caller's household for model.InviteTTL.
func (s *Service) CreateInvite(ctx context.Context, id auth.Identity, email string) (*model.HouseholdInvite, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var("email", email, "required,email"); err != nil {
		return nil, err
	}

	var invite *model.HouseholdInvite
	var householdName string
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		m, err := requireOwner(ctx, tx, id.UserID, "invite members")
		if err != nil {
			return err
		}

		invitee, err := store.NewUserStore(tx).GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if invitee != nil {
			existing, err := store.NewHouseholdStore(tx).GetMember(ctx, m.HouseholdID, invitee.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperr.New(apperr.Validation, "User is already a member of this household")
			}
		}

		invites := store.NewInviteStore(tx)
		pending, err := invites.FindActive(ctx, m.HouseholdID, email)
		if err != nil {
			return err
		}
		if pending != nil {
			return apperr.New(apperr.Conflict, "An invitation has already been sent to this email")
		}

		if invite, err = invites.Create(ctx, m.HouseholdID, id.UserID, email, model.InviteTTL); err != nil {
			return err
		}
		h, err := store.NewHouseholdStore(tx).GetByID(ctx, m.HouseholdID)
		if err != nil {
			return err
		}
		householdName = h.Name
		return nil
	})
	if err != nil {
		return nil, apperr.Propagate(err, "failed to create invite")
	}

	s.notify(ctx, id, invite.Email, householdName)
	invite.HouseholdName = householdName
	return invite, nil
}

func (s *Service) notify(ctx context.Context, id auth.Identity, to, householdName string) {
	if s.notifier == nil || !s.notifier.Configured() {
		return
	}
	inviter := id.Name
	if inviter == "" {
		inviter = id.Email
	}
	if err := s.notifier.SendInvite(ctx, to, householdName, inviter); err != nil {
		s.logger.Warn("invite email failed", "to", to, "error", err)
	}
}

// ListInvites returns the open invites of the caller's household.
func (s *Service) ListInvites(ctx context.Context, id auth.Identity) ([]model.HouseholdInvite, error) {
	m, err := membership(ctx, s.db, id.UserID)
	if err != nil {
		return nil, apperr.Propagate(err, "failed to list invites")
	}
	invites, err := store.NewInviteStore(s.db).ListActiveForHousehold(ctx, m.HouseholdID)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list invites")
	}
	return invites, nil
}

// CancelInvite withdraws an invite sent by the caller's household.
func (s *Service) CancelInvite(ctx context.Context, id auth.Identity, inviteID int64) error {
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		m, err := requireOwner(ctx, tx, id.UserID, "cancel invitations")
		if err != nil {
			return err
		}
		invites := store.NewInviteStore(tx)
		inv, err := invites.GetByID(ctx, inviteID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperr.New(apperr.NotFound, "Invitation not found")
		}
		if inv.HouseholdID != m.HouseholdID {
			return apperr.New(apperr.Forbidden, "Invitation does not belong to your household")
		}
		return invites.Delete(ctx, inviteID)
	})
	return apperr.Propagate(err, "failed to cancel invite")
}

// PendingInvites returns the open invites addressed to the caller.
func (s *Service) PendingInvites(ctx context.Context, id auth.Identity) ([]model.HouseholdInvite, error) {
	invites, err := store.NewInviteStore(s.db).ListActiveForEmail(ctx, id.Email)
	if err != nil {
		return nil, apperr.Wrap(err, "failed to list invites")
	}
	return invites, nil
}

// DeclineInvite deletes an invite addressed to the caller.
func (s *Service) DeclineInvite(ctx context.Context, id auth.Identity, inviteID int64) error {
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		invites := store.NewInviteStore(tx)
		inv, err := invites.GetByID(ctx, inviteID)
		if err != nil {
			return err
		}
		if inv == nil {
			return apperr.New(apperr.NotFound, "Invitation not found")
		}
		if inv.Email != strings.ToLower(strings.TrimSpace(id.Email)) {
			return apperr.New(apperr.Forbidden, "You can only decline invitations sent to your email")
		}
		return invites.Delete(ctx, inviteID)
	})
	return apperr.Propagate(err, "failed to decline invite")
}

// AcceptInvite moves the caller into the household of their newest open
// invite. The household they leave is handed to its earliest-joined other
// member, or deleted with everything in it when nobody else is left.
func (s *Service) AcceptInvite(ctx context.Context, id auth.Identity) (*model.HouseholdDetail, error) {
	var (
		detail        *model.HouseholdDetail
		alreadyMember bool
	)
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		invites := store.NewInviteStore(tx)
		households := store.NewHouseholdStore(tx)

		invite, err := invites.FindActiveForEmail(ctx, id.Email)
		if err != nil {
			return err
		}
		if invite == nil {
			return apperr.New(apperr.NotFound, "No pending invitation found for your email")
		}

		existing, err := households.GetMember(ctx, invite.HouseholdID, id.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			// Commit the cleanup, then report the failure.
			alreadyMember = true
			return invites.Delete(ctx, invite.ID)
		}

		current, err := households.GetMembershipByUser(ctx, id.UserID)
		if err != nil {
			return err
		}
		if current != nil {
			if err := leave(ctx, households, current); err != nil {
				return err
			}
		}

		if _, err := households.AddMember(ctx, invite.HouseholdID, id.UserID, model.RoleMember); err != nil {
			return err
		}
		if err := requireSingleOwner(ctx, households, invite.HouseholdID); err != nil {
			return err
		}
		if err := invites.Delete(ctx, invite.ID); err != nil {
			return err
		}

		detail, err = s.detail(ctx, tx, invite.HouseholdID)
		return err
	})
	if err != nil {
		return nil, apperr.Propagate(err, "failed to accept invite")
	}
	if alreadyMember {
		return nil, apperr.New(apperr.AlreadyMember, "You are already a member of this household")
	}
	s.logger.Info("invite accepted", "user_id", id.UserID, "household_id", detail.ID)
	return detail, nil
}

// leave removes a membership. An owner first hands the household over, or
// deletes it when they are the only member.
func leave(ctx context.Context, households *store.HouseholdStore, m *model.HouseholdMember) error {
	if m.Role != model.RoleOwner {
		return households.DeleteMember(ctx, m.ID)
	}
	others, err := households.OtherMembers(ctx, m.HouseholdID, m.UserID)
	if err != nil {
		return err
	}
	if len(others) == 0 {
		return households.Delete(ctx, m.HouseholdID)
	}
	if err := households.UpdateMemberRole(ctx, others[0].ID, model.RoleOwner); err != nil {
		return err
	}
	if err := households.DeleteMember(ctx, m.ID); err != nil {
		return err
	}
	return requireSingleOwner(ctx, households, m.HouseholdID)
}

// requireSingleOwner fails the surrounding transaction unless the household
// has exactly one owner.
func requireSingleOwner(ctx context.Context, households *store.HouseholdStore, householdID int64) error {
	n, err := households.CountOwners(ctx, householdID)
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("household %d has %d owners", householdID, n)
	}
	return nil
}

// RemoveMember removes another member from the caller's household and gives
// them a new household of their own.
func (s *Service) RemoveMember(ctx context.Context, id auth.Identity, memberID int64) (*model.HouseholdDetail, error) {
	var detail *model.HouseholdDetail
	err := store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		actor, err := requireOwner(ctx, tx, id.UserID, "remove members")
		if err != nil {
			return err
		}

		households := store.NewHouseholdStore(tx)
		target, err := households.GetMemberByID(ctx, memberID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperr.New(apperr.NotFound, "Member not found")
		}
		if target.HouseholdID != actor.HouseholdID {
			return apperr.New(apperr.Forbidden, "Member does not belong to your household")
		}
		if target.Role == model.RoleOwner {
			return apperr.New(apperr.CannotRemoveOwner, "Cannot remove the household owner")
		}

		if err := households.DeleteMember(ctx, target.ID); err != nil {
			return err
		}
		user, err := store.NewUserStore(tx).GetByID(ctx, target.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperr.New(apperr.NotFound, "Member not found")
		}
		if err := createOwnedHousehold(ctx, tx, user); err != nil {
			return err
		}
		if err := requireSingleOwner(ctx, households, actor.HouseholdID); err != nil {
			return err
		}

		detail, err = s.detail(ctx, tx, actor.HouseholdID)
		return err
	})
	if err != nil {
		return nil, apperr.Propagate(err, "failed to remove member")
	}
	s.logger.Info("member removed", "household_id", detail.ID, "member_id", memberID)
	return detail, nil
}
