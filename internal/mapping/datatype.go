package mapping

// Standard PII data type names, per the Glossary. A ColumnSpec.DataType is
// either one of these or a key into MappingDocument.DataTypes.
const (
	TypeFirstName          = "FirstName"
	TypeLastName           = "LastName"
	TypeFullName           = "FullName"
	TypeEmail              = "Email"
	TypePhone              = "Phone"
	TypeFullAddress        = "FullAddress"
	TypeAddressLine1       = "AddressLine1"
	TypeAddressLine2       = "AddressLine2"
	TypeCity               = "City"
	TypeSuburb             = "Suburb"
	TypeState              = "State"
	TypeStateAbbr          = "StateAbbr"
	TypePostCode           = "PostCode"
	TypeZipCode            = "ZipCode"
	TypeCountry            = "Country"
	TypeUKPostcode         = "UKPostcode"
	TypeCreditCard         = "CreditCard"
	TypeNINO               = "NINO"
	TypeSortCode           = "SortCode"
	TypeLicenseNumber      = "LicenseNumber"
	TypeCompanyName        = "CompanyName"
	TypeBusinessABN        = "BusinessABN"
	TypeBusinessACN        = "BusinessACN"
	TypeVehicleRegistration = "VehicleRegistration"
	TypeVINNumber          = "VINNumber"
	TypeVehicleMakeModel   = "VehicleMakeModel"
	TypeEngineNumber       = "EngineNumber"
	TypeGPSCoordinate      = "GPSCoordinate"
	TypeRouteCode          = "RouteCode"
	TypeDepotLocation      = "DepotLocation"
	TypeDate               = "Date"
	TypeDateOfBirth        = "DateOfBirth"
)

// standardTypes is the closed set of names above, used to validate a
// DataTypeDef.BaseType or a bare ColumnSpec.DataType that isn't a custom key.
var standardTypes = map[string]bool{
	TypeFirstName: true, TypeLastName: true, TypeFullName: true,
	TypeEmail: true, TypePhone: true,
	TypeFullAddress: true, TypeAddressLine1: true, TypeAddressLine2: true,
	TypeCity: true, TypeSuburb: true, TypeState: true, TypeStateAbbr: true,
	TypePostCode: true, TypeZipCode: true, TypeCountry: true, TypeUKPostcode: true,
	TypeCreditCard: true, TypeNINO: true, TypeSortCode: true,
	TypeLicenseNumber: true, TypeCompanyName: true,
	TypeBusinessABN: true, TypeBusinessACN: true,
	TypeVehicleRegistration: true, TypeVINNumber: true, TypeVehicleMakeModel: true,
	TypeEngineNumber: true, TypeGPSCoordinate: true, TypeRouteCode: true,
	TypeDepotLocation: true, TypeDate: true, TypeDateOfBirth: true,
}

// IsStandardType reports whether name is one of the Glossary's standard PII
// type names (as opposed to a custom key in MappingDocument.DataTypes).
func IsStandardType(name string) bool {
	return standardTypes[name]
}

// cachedTypes is the low-cardinality set §4.B caches by default.
var cachedTypes = map[string]bool{
	TypeFirstName: true, TypeLastName: true, TypeFullName: true,
	TypeCity: true, TypeSuburb: true, TypeState: true, TypeStateAbbr: true,
	TypeCountry: true, TypePostCode: true, TypeUKPostcode: true,
	TypeCompanyName: true, TypeVehicleMakeModel: true,
	TypeRouteCode: true, TypeDepotLocation: true,
}

// DefaultShouldCache reports the default cache policy for a standard type
// name, before any DataTypeDef.CachePolicy override is applied. Suburb
// resolves identically to City per §9's Design Notes.
func DefaultShouldCache(baseType string) bool {
	return cachedTypes[baseType]
}

// CachePolicy lets a custom DataTypeDef override the default cardinality
// classification for its base type.
type CachePolicy string

const (
	CacheUnset  CachePolicy = ""
	CacheForce  CachePolicy = "always"
	CacheNever  CachePolicy = "never"
)

// DataTypeDef registers a custom data type that resolves to one of the
// standard base types with optional seed/format/validation overrides.
type DataTypeDef struct {
	BaseType       string      `json:"baseType"`
	CustomSeed     string      `json:"customSeed,omitempty"`
	PreserveLength bool        `json:"preserveLength,omitempty"`
	CachePolicy    CachePolicy `json:"cachePolicy,omitempty"`
	Validation     *Validation `json:"validation,omitempty"`
	Formatting     *Formatting `json:"formatting,omitempty"`
}

// Validation constrains a generated value post-formatting, per §4.A.
type Validation struct {
	Regex         string   `json:"regex,omitempty"`
	MinLength     int      `json:"minLength,omitempty"`
	MaxLength     int      `json:"maxLength,omitempty"`
	AllowedValues []string `json:"allowedValues,omitempty"`
}

// Formatting post-processes a generated value before validation, per §4.A.
type Formatting struct {
	AddPrefix string `json:"addPrefix,omitempty"`
	AddSuffix string `json:"addSuffix,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	CaseTransform string `json:"caseTransform,omitempty"` // "upper" | "lower" | "title" | ""
}
