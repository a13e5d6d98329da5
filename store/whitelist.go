package store

import (
	"context"

	"github.com/pkg/errors"
)

// WhitelistEntry is a sender address allowed to talk to the bot.
type WhitelistEntry struct {
	PhoneNumber string
	CreatedTs   int64
}

type FindWhitelistEntry struct {
	PhoneNumber *string
}

type DeleteWhitelistEntry struct {
	PhoneNumber string
}

// AddToWhitelist adds the phone number; adding an existing number is a no-op.
func (s *Store) AddToWhitelist(ctx context.Context, phoneNumber string) error {
	if phoneNumber == "" {
		return errors.New("phone number is required")
	}
	return s.driver.CreateWhitelistEntry(ctx, &WhitelistEntry{PhoneNumber: phoneNumber})
}

// RemoveFromWhitelist removes the phone number; removing an absent number is a no-op.
func (s *Store) RemoveFromWhitelist(ctx context.Context, phoneNumber string) error {
	return s.driver.DeleteWhitelistEntry(ctx, &DeleteWhitelistEntry{PhoneNumber: phoneNumber})
}

func (s *Store) IsWhitelisted(ctx context.Context, phoneNumber string) (bool, error) {
	list, err := s.driver.ListWhitelistEntries(ctx, &FindWhitelistEntry{PhoneNumber: &phoneNumber})
	if err != nil {
		return false, errors.Wrap(err, "failed to check whitelist")
	}
	return len(list) > 0, nil
}

// ListWhitelist returns all whitelisted phone numbers ordered by number.
func (s *Store) ListWhitelist(ctx context.Context) ([]string, error) {
	list, err := s.driver.ListWhitelistEntries(ctx, &FindWhitelistEntry{})
	if err != nil {
		return nil, err
	}
	numbers := make([]string, 0, len(list))
	for _, entry := range list {
		numbers = append(numbers, entry.PhoneNumber)
	}
	return numbers, nil
}
