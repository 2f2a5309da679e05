package generator

// Name, place, and vocabulary pools used by the per-type generators below.
// Indexing a pool by `s mod len(pool)` is what gives FirstName/City/etc.
// their "locale-appropriate but clearly synthetic" look while staying a
// pure function of the hash state.

var firstNames = []string{
	"Oliver", "Amelia", "Jack", "Isla", "Noah", "Ava", "William", "Mia",
	"Thomas", "Grace", "James", "Charlotte", "Lucas", "Sophie", "Henry",
	"Chloe", "Ethan", "Ruby", "Alexander", "Lily", "Harrison", "Zoe",
	"Daniel", "Ella", "Samuel", "Matilda", "Benjamin", "Evie", "Joshua", "Harper",
}

var lastNames = []string{
	"Smith", "Jones", "Williams", "Brown", "Wilson", "Taylor", "Johnson",
	"White", "Martin", "Anderson", "Thompson", "Nguyen", "Clarke", "Walker",
	"Harris", "Young", "King", "Baker", "Campbell", "Mitchell", "Turner",
	"Phillips", "Carter", "Evans", "Parker", "Edwards", "Collins", "Stewart",
}

var companySuffixes = []string{"Pty Ltd", "Group", "Holdings", "Partners", "& Co", "Industries", "Logistics"}
var companyStems = []string{"Harbor", "Summit", "Ironwood", "Northgate", "Bluepeak", "Fernway", "Cobalt", "Lakeside"}

var vehicleMakes = []string{"Toyota", "Ford", "Holden", "Mazda", "Hyundai", "Kia", "Nissan", "Volkswagen"}
var vehicleModels = []string{"Corolla", "Ranger", "Commodore", "CX-5", "i30", "Sportage", "Navara", "Golf"}

var cities = []string{
	"Springfield", "Rivermouth", "Brightwood", "Fairhaven", "Clearwater",
	"Eastbrook", "Northgate", "Westfield", "Hillcrest", "Oakmont",
}

var states = []string{"New South Wales", "Victoria", "Queensland", "South Australia", "Western Australia", "Tasmania"}
var stateAbbrs = []string{"NSW", "VIC", "QLD", "SA", "WA", "TAS"}
var countries = []string{"Australia", "New Zealand", "United Kingdom", "Canada", "Ireland"}

var streetNames = []string{"Main", "High", "Park", "Station", "Church", "Mill", "Victoria", "King", "Queen", "George"}
var streetSuffixes = []string{"Street", "Road", "Avenue", "Lane", "Drive", "Court", "Place"}

var routeCodes = []string{"RT-NORTH", "RT-SOUTH", "RT-EAST", "RT-WEST", "RT-CENTRAL", "RT-METRO"}
var depotLocations = []string{"Depot A", "Depot B", "Depot C", "North Yard", "South Yard", "Central Hub"}

var emailDomains = []string{"example.com", "mailbox.test", "inbox.example", "example.org", "example.net"}

func pick(pool []string, s uint64) string {
	return pool[int(s%uint64(len(pool)))]
}
