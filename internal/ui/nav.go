package ui

import "strings"

// NavState holds the two mutually exclusive overlays of the page chrome.
type NavState struct {
	MobileOpen   bool
	DropdownOpen bool
}

func (n *NavState) ToggleMobile() {
	n.MobileOpen = !n.MobileOpen
	if n.MobileOpen {
		n.DropdownOpen = false
	}
}

func (n *NavState) ToggleDropdown() {
	n.DropdownOpen = !n.DropdownOpen
	if n.DropdownOpen {
		n.MobileOpen = false
	}
}

// NavFromQuery rebuilds the overlay state from the menu query parameter the
// server-rendered toggles link to.
func NavFromQuery(menu string) NavState {
	var n NavState
	switch menu {
	case "mobile":
		n.ToggleMobile()
	case "profile":
		n.ToggleDropdown()
	}
	return n
}

type Link struct {
	Label  string
	Path   string
	Icon   string
	Logout bool
}

type NavLink struct {
	Link
	Active bool
}

// ActiveIndex picks the link matching path exactly, or the longest link that
// is a parent route of path. Logout links never match. -1 means none.
func ActiveIndex(path string, links []Link) int {
	path = strings.TrimRight(path, "/")
	best, bestLen := -1, -1
	for i, link := range links {
		if link.Logout {
			continue
		}
		target := strings.TrimRight(link.Path, "/")
		if target == "" {
			continue
		}
		if path == target || strings.HasPrefix(path, target+"/") {
			if len(target) > bestLen {
				best, bestLen = i, len(target)
			}
		}
	}
	return best
}

func MarkActive(path string, links []Link) []NavLink {
	active := ActiveIndex(path, links)
	out := make([]NavLink, len(links))
	for i, link := range links {
		out[i] = NavLink{Link: link, Active: i == active}
	}
	return out
}
