package valuation

// Country is a tradeable region token. IDs follow the OEC country scheme.
type Country struct {
	ID   string
	Name string
}

// Product is a traded good contested in a round. IDs follow the OEC HS4 scheme.
type Product struct {
	ID       string
	Name     string
	Category string
}

// Countries is the fixed pool hands are dealt from.
var Countries = []Country{
	{"aschn", "China"},
	{"nausa", "United States"},
	{"eudeu", "Germany"},
	{"asjpn", "Japan"},
	{"eugbr", "United Kingdom"},
	{"eufra", "France"},
	{"askor", "South Korea"},
	{"euita", "Italy"},
	{"nacan", "Canada"},
	{"euesp", "Spain"},
	{"asind", "India"},
	{"eunld", "Netherlands"},
	{"assau", "Saudi Arabia"},
	{"euche", "Switzerland"},
	{"ocaus", "Australia"},
	{"euirl", "Ireland"},
	{"namex", "Mexico"},
	{"eurus", "Russia"},
	{"astha", "Thailand"},
	{"asmys", "Malaysia"},
	{"sabra", "Brazil"},
}

// Products is the fixed pool rounds are sampled from.
var Products = []Product{
	{"52709", "Crude Petroleum", "energy"},
	{"178703", "Cars", "automotive"},
	{"52710", "Refined Petroleum", "energy"},
	{"168542", "Integrated Circuits", "electronics"},
	{"168517", "Telephones", "electronics"},
	{"52711", "Petroleum Gas", "energy"},
	{"63004", "Packaged Medicaments", "healthcare"},
	{"178708", "Motor Vehicle Parts", "automotive"},
	{"168471", "Computers", "electronics"},
	{"74011", "Rubber Tires", "automotive"},
	{"21201", "Soybeans", "agriculture"},
	{"42204", "Wine", "beverages"},
	{"10406", "Cheese", "food"},
	{"20901", "Coffee", "beverages"},
	{"41701", "Raw Sugar", "food"},
	{"42208", "Hard Liquor", "beverages"},
	{"42203", "Beer", "beverages"},
	{"178806", "Drones", "electronics"},
}

// strongExporters biases fallback values toward realistic leaders per product.
var strongExporters = map[string][]string{
	"52709":  {"sabra", "eurus", "nausa"},
	"178703": {"eudeu", "asjpn", "askor"},
	"168542": {"aschn", "askor", "asjpn"},
	"168517": {"aschn", "askor", "asjpn"},
	"63004":  {"eudeu", "euche", "nausa"},
	"42204":  {"eufra", "euita", "euesp"},
	"20901":  {"sabra", "eufra", "euita"},
	"21201":  {"sabra", "nausa", "asind"},
}

var defaultStrongExporters = []string{"aschn", "nausa", "eudeu"}

// CountryByID looks up a country token.
func CountryByID(id string) (Country, bool) {
	for _, c := range Countries {
		if c.ID == id {
			return c, true
		}
	}
	return Country{}, false
}

// ProductByID looks up a product.
func ProductByID(id string) (Product, bool) {
	for _, p := range Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
