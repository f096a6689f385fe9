package fetch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"

	"marketpulse/internal/core"
)

// urlRegex is a simple regex to find URLs.
var urlRegex = regexp.MustCompile(`https?://[^\s)]+`)

// markdownLinkRegex captures "[title](url)".
var markdownLinkRegex = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\s)]+)\)`)

// ReadLinksFromFile reads article links from a file. JSON files may hold
// either {"news_links": [...]} or a bare array of {title, url}. Any other
// file is scanned line by line for URLs; a markdown link supplies the
// title, otherwise the URL doubles as the title.
func ReadLinksFromFile(filePath string) ([]core.ArticleLink, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open link file %s: %w", filePath, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		links, err := parseJSONLinks(trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to parse link file %s: %w", filePath, err)
		}
		return links, nil
	}

	var links []core.ArticleLink
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()

		titles := make(map[string]string)
		for _, m := range markdownLinkRegex.FindAllStringSubmatch(line, -1) {
			titles[m[2]] = strings.TrimSpace(m[1])
		}

		for _, textURL := range urlRegex.FindAllString(line, -1) {
			parsed, err := url.ParseRequestURI(textURL)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
				continue
			}
			if seen[textURL] {
				continue
			}
			seen[textURL] = true

			title := titles[textURL]
			if title == "" {
				title = textURL
			}
			links = append(links, core.ArticleLink{Title: title, URL: textURL})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading link file %s: %w", filePath, err)
	}
	return links, nil
}

func parseJSONLinks(data []byte) ([]core.ArticleLink, error) {
	if data[0] == '[' {
		var links []core.ArticleLink
		if err := json.Unmarshal(data, &links); err != nil {
			return nil, err
		}
		return links, nil
	}
	var payload struct {
		NewsLinks []core.ArticleLink `json:"news_links"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload.NewsLinks, nil
}
