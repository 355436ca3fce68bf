package apimodel

type Status struct {
	Version         string         `json:"version"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	BitsPerPixel    int            `json:"bits_per_pixel"`
	Columns         int            `json:"columns"`
	Rows            int            `json:"rows"`
	Rotate          int            `json:"rotate"`
	KeypadRotate    int            `json:"keypad_rotate"`
	AutoRotate      bool           `json:"auto_rotate"`
	AlwaysTextBar   bool           `json:"always_text_bar"`
	AlwaysStatusBar bool           `json:"always_status_bar"`
	DisplayText     bool           `json:"display_text"`
	StatusBar       bool           `json:"status_bar"`
	Text            []string       `json:"text"`
	Icons           map[string]int `json:"icons"`
	Battery         *BatteryStatus `json:"battery,omitempty"`
	Outputs         []OutputStatus `json:"outputs"`
	ActiveOutputs   int            `json:"active_outputs"`
}

type BatteryStatus struct {
	Available       bool `json:"available"`
	External        bool `json:"external"`
	OnExternalPower bool `json:"on_external_power"`
	Voltage         int  `json:"voltage"`
	Percent         int  `json:"percent"`
	Severity        int  `json:"severity"`
}

type OutputStatus struct {
	Path    string `json:"path"`
	Enabled bool   `json:"enabled"`
	Failed  bool   `json:"failed"`
	Written int    `json:"written"`
}

// KeyList holds the logical keys accepted since the previous request.
type KeyList struct {
	Keys []string `json:"keys"`
}
