package domain

// Categories maps each ticket category to its valid subcategories.
var Categories = map[string][]string{
	"Account":        {"Password Reset", "Locked Account", "2FA"},
	"Hardware":       {"Laptop", "Printer", "Network"},
	"Software":       {"Email", "Office Suite", "Line of Business App"},
	"Access Request": {"New App Access", "VPN", "Shared Drive"},
}

const (
	DefaultCategory    = "Account"
	DefaultSubcategory = "Password Reset"
)

// ValidSubcategory reports whether sub belongs to the category's set.
func ValidSubcategory(category, sub string) bool {
	for _, s := range Categories[category] {
		if s == sub {
			return true
		}
	}
	return false
}
