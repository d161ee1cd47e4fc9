package types

// SettingValueType names the JSON type of a setting value.
type SettingValueType string

const (
	SettingString  SettingValueType = "string"
	SettingBoolean SettingValueType = "boolean"
	SettingNumber  SettingValueType = "number"
)

// SettingModel is one application setting. Value holds a string, bool or
// float64 matching ValueType.
type SettingModel struct {
	ID        string           `json:"id"`
	Key       string           `json:"key"`
	Value     any              `json:"value"`
	ValueType SettingValueType `json:"valueType"`
}
