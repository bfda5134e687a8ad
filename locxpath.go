// Package locxpath provides a batch tool that infers XPath locators for
// named content elements (title, body, author, ...) of arbitrary web pages.
// Each page is fetched, reduced to a bounded DOM digest, handed to an LLM
// that proposes locators, and the proposals are validated against the page.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, gemini/, htmlquery/).
package locxpath
