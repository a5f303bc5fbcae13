package routes

import "fmt"

const apiVersion = "v1"

// Version returns the current API version string used in routing (e.g., "v1").
func Version() string {
	return apiVersion
}

// Base returns the versioned API base path (e.g., "/api/v1").
func Base() string {
	return fmt.Sprintf("/api/%s", Version())
}

func buildResourceRoute(resource string) string {
	return Base() + "/" + resource
}

// Documents returns the documents base path (e.g., "/api/v1/documents").
func Documents() string { return buildResourceRoute("documents") }

// Upload returns the upload path (e.g., "/api/v1/documents/upload").
func Upload() string { return Documents() + "/upload" }

// Splitters returns the splitter catalogue base path (e.g., "/api/v1/splitters").
func Splitters() string { return buildResourceRoute("splitters") }

// Preview returns the split preview path (e.g., "/api/v1/splitters/preview").
func Preview() string { return Splitters() + "/preview" }

func Stats() string { return buildResourceRoute("stats") }

// HealthVersioned returns the versioned health path (e.g., "/api/v1/health").
func HealthVersioned() string {
	return Base() + "/health"
}
