package main

import (
	"errors"
	"log"
)

var defaultAbout = map[string]any{
	"bio": `I love building software that's both useful and fun, and I'm always curious
about how things work behind the scenes. Most of my projects start with a simple
idea and turn into a chance to learn something new.`,
	"timeline": []any{
		map[string]any{
			"title":   "Backend Engineer",
			"company": "Freelance",
			"start":   "2022",
			"end":     "Present",
		},
	},
}

var defaultProjects = map[string]any{
	"projects": []any{
		map[string]any{
			"id":          "terminal-mail",
			"name":        "Terminal Mail",
			"description": "A terminal-based email client built in Go with fuzzy-finder capabilities.",
		},
		map[string]any{
			"id":          "stream-tui",
			"name":        "Stream TUI",
			"description": "A terminal music streaming app leveraging yt-dlp and mpv for playback.",
		},
		map[string]any{
			"id":          "folio",
			"name":        "Folio",
			"description": "This portfolio site: a Go backend with versioned content and a read-through cache.",
		},
	},
}

// seedContent writes version 1 of about/projects from the built-in copy,
// but only for content types that have never been written.
func seedContent() {
	seeds := map[string]map[string]any{
		contentAbout:    defaultAbout,
		contentProjects: defaultProjects,
	}

	for contentType, data := range seeds {
		_, err := latestSnapshot(contentType)
		if err == nil {
			continue
		}
		if !errors.Is(err, errNoContent) {
			log.Printf("Seed check failed for %s: %v", contentType, err)
			continue
		}

		if err := appendSnapshot(contentType, 1, data); err != nil {
			log.Printf("Seeding %s failed: %v", contentType, err)
			continue
		}
		log.Printf("Seeded %s content at version 1", contentType)
	}
}
