package website

// WebsiteTypes is the fixed list of website categories offered to users.
var WebsiteTypes = []string{
	"Business Website",
	"Portfolio",
	"E-commerce Store",
	"Blog",
	"Landing Page",
	"Restaurant",
	"Photography",
	"Consulting",
	"Non-profit",
	"Education",
	"Healthcare",
	"Real Estate",
	"Technology",
	"Creative Agency",
	"Personal",
	"Other",
}

// DefaultColorScheme leaves the palette to the generator.
const DefaultColorScheme = "Custom (AI will choose)"

// ColorSchemes is the fixed list of palettes offered to users.
var ColorSchemes = []string{
	"Modern Blue & White",
	"Professional Gray & Navy",
	"Vibrant Orange & Yellow",
	"Elegant Black & Gold",
	"Nature Green & Brown",
	"Creative Purple & Pink",
	"Minimalist Black & White",
	"Warm Red & Cream",
	"Cool Teal & Light Blue",
	DefaultColorScheme,
}

// Features is the catalog of selectable site features.
var Features = []string{
	"Contact Form",
	"Image Gallery",
	"Testimonials",
	"Services Section",
	"Team Members",
	"FAQ Section",
	"Newsletter Signup",
	"Social Media Links",
	"Blog Section",
	"Portfolio Gallery",
	"Pricing Tables",
	"Location Map",
	"Live Chat",
	"Search Functionality",
	"Multi-language Support",
}

// HomePage is always present and cannot be removed.
const HomePage = "Home"

// DefaultPages seeds a new form.
var DefaultPages = []string{HomePage, "About", "Contact"}

// GenerationSteps labels the phases shown while a job is generating.
var GenerationSteps = []string{
	"Connecting to Gemini AI",
	"Analyzing your business vision",
	"Creating custom content & layout",
	"Building responsive design",
	"Adding professional features",
	"Finalizing your website",
}

// IsFeature reports whether name is in the feature catalog.
func IsFeature(name string) bool {
	return contains(Features, name)
}

// IsWebsiteType reports whether name is a known website type.
func IsWebsiteType(name string) bool {
	return contains(WebsiteTypes, name)
}

func contains(list []string, name string) bool {
	for _, item := range list {
		if item == name {
			return true
		}
	}
	return false
}
