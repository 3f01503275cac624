package secrets

// DefaultPatterns returns the built-in rules used when no pattern file is
// available.
func DefaultPatterns() []Pattern {
	return []Pattern{
		mustPattern("Any AIza key", `AIzaSy[a-zA-Z0-9\-_]{33}`),
		mustPattern("Any sk- key", `sk-[a-zA-Z0-9]{20,}`),
		mustPattern("DeepSeek API Key", `sk-[a-z0-9]{32}`),
		mustPattern("Gemini API Key", `AIzaSyD[a-zA-Z0-9\-_]{33}`),
		mustPattern("Hard-coded Key",
			`(?i)(?:GEMINI_API_KEY|DEEPSEEK_API_KEY|LEONARDO_API_KEY|OPENAI_API_KEY)[^"']*["']([a-zA-Z0-9\-_]{20,})["']`,
			"gemini_api_key", "deepseek_api_key", "leonardo_api_key", "openai_api_key"),
		mustPattern("Leonardo AI Key", `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`),
		mustPattern("OpenAI Key", `sk-[a-zA-Z0-9]{48}`),
		mustPattern("Supabase Anon Key",
			`eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9\.eyJpc3MiOiJzdXBhYmFzZSIsInJlZiI6I[a-zA-Z0-9_\-]{15,}`),
	}
}
