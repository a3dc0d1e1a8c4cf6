package event

// maxRenoteDepth bounds recursive renote extraction. Real Misskey payloads
// nest at most one renote, but the walk is depth-limited anyway; beyond the
// limit a stub carrying only the note id is substituted.
const maxRenoteDepth = 16

// ExtractUser projects a raw user record onto the compact canonical shape.
// Missing fields get defaults: username="", name=null, host=null (null host
// means a local user).
func ExtractUser(user map[string]any) map[string]any {
	return map[string]any{
		"username": stringOr(user, "username", ""),
		"name":     nullableString(user, "name"),
		"host":     nullableString(user, "host"),
	}
}

// ExtractNote projects a raw note record onto the compact canonical shape.
// Extraction is total: absent optional fields are replaced by documented
// defaults (text=null, cw=null, visibility="public") instead of failing.
// Nested renotes are extracted recursively up to maxRenoteDepth.
func ExtractNote(note map[string]any) map[string]any {
	return extractNote(note, 0)
}

func extractNote(note map[string]any, depth int) map[string]any {
	n := map[string]any{
		"id":         stringOr(note, "id", ""),
		"text":       nullableString(note, "text"),
		"cw":         nullableString(note, "cw"),
		"visibility": stringOr(note, "visibility", "public"),
		"createdAt":  stringOr(note, "createdAt", ""),
	}

	user, _ := note["user"].(map[string]any)
	n["user"] = ExtractUser(user)

	if renote, ok := note["renote"].(map[string]any); ok {
		if depth+1 >= maxRenoteDepth {
			n["renote"] = map[string]any{
				"id":        stringOr(renote, "id", ""),
				"truncated": true,
			}
		} else {
			n["renote"] = extractNote(renote, depth+1)
		}
	}

	if reply, ok := note["reply"].(map[string]any); ok {
		n["replyTo"] = stringOr(reply, "id", "")
	}

	if files, ok := note["files"].([]any); ok {
		n["fileCount"] = len(files)
	}

	if reactions, ok := note["reactions"].(map[string]any); ok {
		n["reactionCount"] = len(reactions)
	}

	return n
}

// UserHandle builds the full @username or @username@host form from an
// extracted user. Pure formatting, consumed only by the human renderer.
func UserHandle(user map[string]any) string {
	handle := "@" + stringOr(user, "username", "???")
	if host, ok := user["host"].(string); ok && host != "" {
		handle += "@" + host
	}
	return handle
}

// stringOr returns m[key] if it is a string, otherwise fallback.
func stringOr(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return fallback
}

// nullableString returns m[key] if it is a string, otherwise an explicit
// nil so the field marshals as JSON null.
func nullableString(m map[string]any, key string) any {
	if s, ok := m[key].(string); ok {
		return s
	}
	return nil
}
