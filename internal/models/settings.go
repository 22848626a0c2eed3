package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

type Interval string

const (
	IntervalFiveMinutes Interval = "five_minutes"
	IntervalHourly      Interval = "hourly"
	IntervalDaily       Interval = "daily"
)

// ParseInterval accepts only the three supported schedule names.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case IntervalFiveMinutes, IntervalHourly, IntervalDaily:
		return Interval(s), nil
	}
	return "", fmt.Errorf("unknown schedule interval %q", s)
}

func (i Interval) Duration() time.Duration {
	switch i {
	case IntervalHourly:
		return time.Hour
	case IntervalDaily:
		return 24 * time.Hour
	default:
		return 5 * time.Minute
	}
}

// CronSpec renders the interval as a robfig/cron "@every" descriptor.
func (i Interval) CronSpec() string {
	return "@every " + i.Duration().String()
}

// SyncConfig is everything a sync cycle needs to know about the remote catalog
// and the destination table.
type SyncConfig struct {
	EndpointURL string   `json:"api_url"`
	AccessToken string   `json:"access_token"`
	TableName   string   `json:"table_name"`
	Interval    Interval `json:"schedule"`
}

const DefaultTableName = "shopify_products"

func (c SyncConfig) Validate() error {
	if c.EndpointURL != "" {
		u, err := url.Parse(c.EndpointURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api_url %q is not an absolute URL", c.EndpointURL)
		}
	}
	if !IsValidIdentifier(c.TableName) {
		return fmt.Errorf("table_name %q is not a valid identifier", c.TableName)
	}
	if _, err := ParseInterval(string(c.Interval)); err != nil {
		return err
	}
	return nil
}

const tokenMask = "****"

// MaskedToken hides all but the last four characters of the access token.
func (c SyncConfig) MaskedToken() string {
	if len(c.AccessToken) <= 4 {
		if c.AccessToken == "" {
			return ""
		}
		return tokenMask
	}
	return tokenMask + c.AccessToken[len(c.AccessToken)-4:]
}

// IsMaskedToken reports whether token is the masked form handed out by
// MaskedToken rather than a real credential.
func IsMaskedToken(token string) bool {
	return strings.HasPrefix(token, tokenMask)
}

// SyncStatus is observable state rewritten after every successful cycle.
type SyncStatus struct {
	LastSyncAt      *time.Time
	NextSyncAt      *time.Time
	LastRecordCount int
}

const (
	StatusTimeLayout = "2006-01-02 15:04:05"
	NeverSynced      = "never"
	Unscheduled      = "unscheduled"
)

func (s SyncStatus) LastSyncLabel() string {
	if s.LastSyncAt == nil {
		return NeverSynced
	}
	return s.LastSyncAt.Format(StatusTimeLayout)
}

func (s SyncStatus) NextSyncLabel() string {
	if s.NextSyncAt == nil {
		return Unscheduled
	}
	return s.NextSyncAt.Format(StatusTimeLayout)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// IsValidIdentifier reports whether s can be used unquoted as a table or
// column name on every supported database.
func IsValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
