// Package media stores user-uploaded files (avatars, cover images) and
// resolves them to public URLs.
package media
