package bitewise

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// RobotsDecision is what robots.txt says about one url.
type RobotsDecision struct {
	Allowed    bool
	CrawlDelay time.Duration
}

type robotsState int

const (
	robotsNoAgent robotsState = iota
	robotsAgentMatched
	robotsRuleFound
)

// EvaluateRobots interprets a robots.txt body for currentURL on the site at
// baseURL. Only groups for userAgent or "*" apply. The first Allow or
// Disallow whose path prefixes currentURL decides; the next User-agent line
// after that ends the scan. Without a matching rule the url is allowed.
func EvaluateRobots(body, baseURL, currentURL, userAgent string) RobotsDecision {
	decision := RobotsDecision{Allowed: true}
	state := robotsNoAgent

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := robotsDirective(line)
		if !ok {
			continue
		}

		if key == "user-agent" {
			if state == robotsRuleFound {
				break
			}
			if value == userAgent || value == "*" {
				state = robotsAgentMatched
			} else {
				state = robotsNoAgent
			}
			continue
		}
		if state == robotsNoAgent {
			continue
		}

		switch key {
		case "allow", "disallow":
			if state == robotsRuleFound {
				continue
			}
			rule := robotsRuleURL(value, baseURL)
			if rule != "" && strings.HasPrefix(currentURL, rule) {
				state = robotsRuleFound
				decision.Allowed = key == "allow"
			}
		case "crawl-delay":
			if secs, err := strconv.ParseFloat(value, 64); err == nil && secs >= 0 {
				decision.CrawlDelay = time.Duration(secs * float64(time.Second))
			}
		}
	}
	return decision
}

// robotsDirective splits "Key: value" into a lowercase key and trimmed value.
// Lines without a value are ignored.
func robotsDirective(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", "", false
	}
	return strings.ToLower(strings.TrimSpace(key)), value, true
}

// robotsRuleURL turns a path rule into an absolute url prefix. Rules that are
// not absolute paths are ignored.
func robotsRuleURL(rule, baseURL string) string {
	if !strings.HasPrefix(rule, "/") {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + rule
}

// fetchRobots downloads robots.txt of the site at baseURL. Any failure gives
// an empty body, which allows everything.
func fetchRobots(ctx context.Context, client *http.Client, baseURL, userAgent string) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+"/robots.txt", nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return ""
	}
	return string(body)
}
