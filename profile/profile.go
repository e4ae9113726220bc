package profile

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// accountIDBase converts between 64-bit community ids and 32-bit account ids.
const accountIDBase = uint64(76561197960265728)

var (
	ErrInvalidURL = errors.New("invalid profile url")
	ErrNotFound   = errors.New("profile not found")

	profileURLRx = regexp.MustCompile(`https?://steamcommunity\.com/(?:id|profiles)/[^/\s?#]+/?`)
)

type Profile struct {
	URL    string `json:"url"`
	ID64   string `json:"id64"`
	ID3    string `json:"id3"`
	Name   string `json:"name,omitempty"`
	Public bool   `json:"public"`
}

type Resolver interface {
	Lookup(ctx context.Context, profileURL string) (Profile, error)
}

// FindURL extracts the first community profile link from free text.
func FindURL(text string) string {
	return profileURLRx.FindString(text)
}

// AccountID derives the 32-bit account id used as a gift recipient.
func AccountID(id64 string) (string, error) {
	n, err := strconv.ParseUint(id64, 10, 64)
	if err != nil || n < accountIDBase {
		return "", fmt.Errorf("bad id64 %q", id64)
	}
	return strconv.FormatUint(n-accountIDBase, 10), nil
}

type xmlProfile struct {
	XMLName      xml.Name `xml:""`
	ID64         string   `xml:"steamID64"`
	Name         string   `xml:"steamID"`
	PrivacyState string   `xml:"privacyState"`
	Error        string   `xml:"error"`
}

type xmlResolver struct {
	httpClient *http.Client
}

func NewResolver(timeout time.Duration) Resolver {
	return &xmlResolver{httpClient: &http.Client{Timeout: timeout}}
}

func (r *xmlResolver) Lookup(ctx context.Context, profileURL string) (Profile, error) {
	profileURL = strings.TrimSpace(profileURL)
	u, err := url.Parse(profileURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Profile{}, ErrInvalidURL
	}
	q := u.Query()
	q.Set("xml", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Profile{}, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Profile{}, fmt.Errorf("profile lookup: %s", resp.Status)
	}

	var doc xmlProfile
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return Profile{}, fmt.Errorf("profile lookup: %w", err)
	}
	if doc.Error != "" || doc.ID64 == "" {
		return Profile{}, ErrNotFound
	}
	id3, err := AccountID(doc.ID64)
	if err != nil {
		return Profile{}, err
	}

	return Profile{
		URL:    profileURL,
		ID64:   doc.ID64,
		ID3:    id3,
		Name:   doc.Name,
		Public: doc.PrivacyState == "public",
	}, nil
}
