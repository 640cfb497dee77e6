// Package chat defines the forum and chat data model the membership
// reconciliation engine operates on: users, groups, categories and their
// group permissions, chat channels and channel memberships.
//
// Group lists follow the site-setting encoding used by the forum: group ids
// joined with "|". The everyone group (id 0) has no stored membership rows;
// every user is implicitly a member of it.
package chat
