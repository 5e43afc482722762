package client

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"time"
)

// DeviceSettings represents the emulated device configuration.
type DeviceSettings struct {
	AppVersion     string `json:"app_version"`
	AndroidVersion int    `json:"android_version"`
	AndroidRelease string `json:"android_release"`
	DPI            string `json:"dpi"`
	Resolution     string `json:"resolution"`
	Manufacturer   string `json:"manufacturer"`
	Device         string `json:"device"`
	Model          string `json:"model"`
	CPU            string `json:"cpu"`
	VersionCode    string `json:"version_code"`
}

// deviceDatabase holds realistic device fingerprint profiles.
var deviceDatabase = []DeviceSettings{
	{
		Manufacturer:   "OnePlus",
		Device:         "devitron",
		Model:          "6T Dev",
		AndroidVersion: 26,
		AndroidRelease: "8.0.0",
		DPI:            "480dpi",
		Resolution:     "1080x1920",
		CPU:            "qcom",
	},
	{
		Manufacturer:   "samsung",
		Device:         "beyond1",
		Model:          "SM-G973F",
		AndroidVersion: 29,
		AndroidRelease: "10.0",
		DPI:            "560dpi",
		Resolution:     "1440x3040",
		CPU:            "exynos9820",
	},
	{
		Manufacturer:   "Google",
		Device:         "oriole",
		Model:          "Pixel 6",
		AndroidVersion: 31,
		AndroidRelease: "12.0",
		DPI:            "420dpi",
		Resolution:     "1080x2400",
		CPU:            "arm64-v8a",
	},
	{
		Manufacturer:   "Xiaomi",
		Device:         "cmi",
		Model:          "Mi 10 Pro",
		AndroidVersion: 30,
		AndroidRelease: "11.0",
		DPI:            "440dpi",
		Resolution:     "1080x2340",
		CPU:            "qcom",
	},
}

var appVersions = []string{
	"269.0.0.18.75",
	"270.0.0.14.83",
	"271.0.0.21.84",
	"272.0.0.17.84",
	"273.0.0.16.70",
}

// defaultDeviceSettings returns the stable default fingerprint. Sessions
// restored from disk keep whatever fingerprint they were created with.
func defaultDeviceSettings() *DeviceSettings {
	ds := deviceDatabase[0]
	ds.AppVersion = appVersions[0]
	ds.VersionCode = "314665256"
	return &ds
}

// GenerateDeviceFingerprint creates a randomized realistic fingerprint.
func GenerateDeviceFingerprint() *DeviceSettings {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ds := deviceDatabase[r.Intn(len(deviceDatabase))]
	ds.AppVersion = appVersions[r.Intn(len(appVersions))]
	ds.VersionCode = "314665256"
	return &ds
}

// GenerateDeviceID generates an android device ID from the current time.
func GenerateDeviceID() string {
	timestamp := strconv.FormatInt(time.Now().UnixNano(), 10)
	hash := sha256.Sum256([]byte(timestamp))
	return "android-" + hex.EncodeToString(hash[:])[:16]
}

// BuildUserAgent constructs the mobile user agent from device settings.
func BuildUserAgent(ds *DeviceSettings, locale string) string {
	return fmt.Sprintf(
		"Instagram %s Android (%d/%s; %s; %s; %s; %s; %s; %s; %s)",
		ds.AppVersion,
		ds.AndroidVersion,
		ds.AndroidRelease,
		ds.DPI,
		ds.Resolution,
		ds.Manufacturer,
		ds.Device,
		ds.Model,
		ds.CPU,
		locale,
	)
}
