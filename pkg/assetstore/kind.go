package assetstore

import (
	"fmt"
	"strings"
)

// Kind selects the storage technology backing the asset store.
type Kind int

const (
	// KindFolder stores assets as files below a local directory.
	KindFolder Kind = iota + 1
	// KindGoogleCloud stores assets in a Google Cloud Storage bucket.
	KindGoogleCloud
	// KindAzureBlob stores assets in an Azure Blob Storage container.
	KindAzureBlob
	// KindMongoDB stores assets in a MongoDB GridFS bucket.
	KindMongoDB
	// KindAmazonS3 stores assets in an S3 (or S3-compatible) bucket.
	KindAmazonS3
)

var kindNames = map[Kind]string{
	KindFolder:      "Folder",
	KindGoogleCloud: "GoogleCloud",
	KindAzureBlob:   "AzureBlob",
	KindMongoDB:     "MongoDb",
	KindAmazonS3:    "AmazonS3",
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindFolder, KindGoogleCloud, KindAzureBlob, KindMongoDB, KindAmazonS3}
}

// KindNames returns the configuration names of every supported kind.
func KindNames() []string {
	kinds := Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}

// ParseKind converts a configuration value into a Kind.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseKind(s string) (Kind, error) {
	value := strings.TrimSpace(s)
	for _, k := range Kinds() {
		if strings.EqualFold(value, kindNames[k]) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown asset store kind %q (valid: %s)", s, strings.Join(KindNames(), ", "))
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ConfigKey returns the name of the configuration section holding the
// parameters for this kind (e.g. "folder" for assetStore:folder:path).
func (k Kind) ConfigKey() string {
	switch k {
	case KindFolder:
		return "folder"
	case KindGoogleCloud:
		return "googleCloud"
	case KindAzureBlob:
		return "azureBlob"
	case KindMongoDB:
		return "mongoDb"
	case KindAmazonS3:
		return "amazonS3"
	default:
		return ""
	}
}
