package server

import "fmt"

// displayServerInfo prints the endpoints and protection settings at startup.
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
	s.displayKnowledgeInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health         - Health check")
	fmt.Println("  GET  /stats          - Server statistics")
	fmt.Println("  GET  /roles          - Known target roles")
	fmt.Println("  POST /analyze        - Analyze a CV against a target role (requires API key)")
	fmt.Println("  POST /index/rebuild  - Rebuild the knowledge base index (requires API key)")
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to /analyze and /index/rebuild")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}

func (s *Server) displayKnowledgeInfo() {
	if s.Index == nil {
		fmt.Println("Knowledge base: NOT CONFIGURED")
		return
	}
	stats := s.Index.Stats()
	fmt.Printf("Knowledge base: %d documents, %d chunks (embedder: %s)\n", stats.Documents, stats.Chunks, stats.Embedder)
	if s.watcher != nil {
		fmt.Println("  - Watching for changes")
	}
}
