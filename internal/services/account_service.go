package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nekowy/messy-protect-service/internal/crypto"
	"github.com/nekowy/messy-protect-service/internal/models"
	"github.com/nekowy/messy-protect-service/internal/proxy"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// TaskTypeWhitelist tags outbox tasks that mirror whitelist state.
	TaskTypeWhitelist = "whitelist"
	ActionAdd         = "add"
	ActionRemove      = "remove"
)

var (
	ErrProxyDenied        = errors.New("vpn or proxy not allowed")
	ErrInvalidUsername    = errors.New("username must be at least 3 characters")
	ErrInvalidNick        = errors.New("invalid nickname")
	ErrIPTaken            = errors.New("only 1 account per IP address allowed")
	ErrUsernameTaken      = errors.New("username already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSuspended          = errors.New("access suspended")
	ErrNickAlreadySet     = errors.New("nickname already set, contact admin to change")
	ErrUserNotFound       = errors.New("user not found")
	ErrUnknownAction      = errors.New("invalid action")
	ErrValueRequired      = errors.New("value required for this action")
)

// AccountService owns account registration, credential checks and every
// whitelist mutation. Any mutation that must reach the game server goes
// through the outbox in the same transaction as the user update, so a crash
// cannot bind a nickname without its mirroring task or vice versa.
type AccountService struct {
	db     *gorm.DB
	outbox *OutboxService
}

func NewAccountService(db *gorm.DB, outbox *OutboxService) *AccountService {
	return &AccountService{db: db, outbox: outbox}
}

// Register creates an account for username from clientIP and returns the
// generated one-time password. The password is plaintext here and never
// recoverable again; only its bcrypt hash is stored. Uniqueness of both the
// username and the IP digest is enforced by the storage constraints, so two
// racing registrations from one IP cannot both commit.
func (s *AccountService) Register(username, clientIP string, proxyLike bool) (string, error) {
	if proxyLike {
		return "", ErrProxyDenied
	}
	if len(username) < 3 {
		return "", ErrInvalidUsername
	}

	rawBytes := make([]byte, 8)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	password := hex.EncodeToString(rawBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	ipHash := crypto.HashIdentifier(proxy.NormalizeIP(clientIP))
	user := models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IPHash:       ipHash,
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", s.classifyConflict(ipHash)
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	return password, nil
}

// classifyConflict decides which unique constraint fired. The constraint is
// the authority; this read only picks the error message.
func (s *AccountService) classifyConflict(ipHash string) error {
	var existing models.User
	if err := s.db.Where("ip_hash = ?", ipHash).First(&existing).Error; err == nil {
		return ErrIPTaken
	}
	return ErrUsernameTaken
}

// Login verifies credentials and returns the account. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *AccountService) Login(username, password string) (*models.User, error) {
	user, err := s.authenticate(username, password)
	if err != nil {
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrSuspended
	}
	return user, nil
}

// SetWhitelist binds nick to the account. Self-service gets one shot: once a
// nickname is set only an admin can change it. The task insert and the user
// update share one transaction.
func (s *AccountService) SetWhitelist(username, password, nick string, proxyLike bool) error {
	if proxyLike {
		return ErrProxyDenied
	}

	user, err := s.authenticate(username, password)
	if err != nil {
		return err
	}
	if user.IsBanned {
		return ErrSuspended
	}
	if user.WhitelistedNick != nil {
		return ErrNickAlreadySet
	}
	if nick == "" || len(nick) > 64 {
		return ErrInvalidNick
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.outbox.EnqueueIn(tx, TaskTypeWhitelist, ActionAdd, nick); err != nil {
			return err
		}
		return tx.Model(user).Update("whitelisted_nick", nick).Error
	})
}

// AdminAction applies a forced mutation to target and returns a human-readable
// summary. Compensating remove/add tasks are enqueued in the same transaction
// as the user update.
func (s *AccountService) AdminAction(action, target, value string) (string, error) {
	var user models.User
	if err := s.db.Where("username = ?", target).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	switch action {
	case "ban":
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if user.WhitelistedNick != nil {
				if _, err := s.outbox.EnqueueIn(tx, TaskTypeWhitelist, ActionRemove, *user.WhitelistedNick); err != nil {
					return err
				}
			}
			return tx.Model(&user).Update("is_banned", true).Error
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Banned %s", target), nil

	case "unban":
		if err := s.db.Model(&user).Update("is_banned", false).Error; err != nil {
			return "", err
		}
		return fmt.Sprintf("Unbanned %s", target), nil

	case "set_whitelist":
		if value == "" {
			return "", ErrValueRequired
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if user.WhitelistedNick != nil {
				if _, err := s.outbox.EnqueueIn(tx, TaskTypeWhitelist, ActionRemove, *user.WhitelistedNick); err != nil {
					return err
				}
			}
			if _, err := s.outbox.EnqueueIn(tx, TaskTypeWhitelist, ActionAdd, value); err != nil {
				return err
			}
			return tx.Model(&user).Update("whitelisted_nick", value).Error
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Forced whitelist for %s to %s", target, value), nil

	case "clear_whitelist":
		if user.WhitelistedNick == nil {
			return "User had no whitelist.", nil
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if _, err := s.outbox.EnqueueIn(tx, TaskTypeWhitelist, ActionRemove, *user.WhitelistedNick); err != nil {
				return err
			}
			return tx.Model(&user).Update("whitelisted_nick", nil).Error
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Cleared whitelist for %s", target), nil

	default:
		return "", ErrUnknownAction
	}
}

func (s *AccountService) authenticate(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}
