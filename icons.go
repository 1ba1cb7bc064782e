package pagetl

// iconGlyphs are ligature names of common icon fonts (Material Icons,
// Material Symbols). Those fonts render the glyph name as literal text
// content, so an exact match is never real copy in advanced mode.
var iconGlyphs = map[string]bool{}

func init() {
	for _, name := range []string{
		"home", "menu", "close", "search", "settings", "account_circle", "person",
		"arrow_back", "arrow_forward", "arrow_upward", "arrow_downward",
		"arrow_drop_down", "arrow_drop_up", "arrow_left", "arrow_right",
		"chevron_left", "chevron_right", "expand_more", "expand_less",
		"more_vert", "more_horiz", "check", "check_circle", "cancel", "clear",
		"add", "add_circle", "remove", "delete", "edit", "save", "share",
		"favorite", "favorite_border", "star", "star_border", "star_half",
		"info", "help", "help_outline", "warning", "error", "error_outline",
		"notifications", "mail", "email", "phone", "call", "chat", "send",
		"shopping_cart", "shopping_bag", "lock", "lock_open", "visibility",
		"visibility_off", "logout", "login", "refresh", "sync", "download",
		"upload", "cloud", "cloud_upload", "cloud_download", "attach_file",
		"link", "launch", "open_in_new", "print", "language", "translate",
		"dashboard", "calendar_today", "event", "schedule", "access_time",
		"place", "location_on", "map", "filter_list", "sort", "tune",
		"play_arrow", "pause", "stop", "volume_up", "volume_off", "mic",
		"photo_camera", "image", "thumb_up", "thumb_down", "keyboard_arrow_down",
		"keyboard_arrow_up", "keyboard_arrow_left", "keyboard_arrow_right",
		"fullscreen", "fullscreen_exit", "content_copy", "done", "done_all",
		"list", "grid_view", "view_list", "bookmark", "bookmark_border",
	} {
		iconGlyphs[name] = true
	}
}

// isIconGlyph reports whether text is exactly an icon-font glyph name.
func isIconGlyph(text string) bool {
	return iconGlyphs[text]
}
