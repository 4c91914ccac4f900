package errors

import "testing"

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		wantErr bool
	}{
		{"valid simple", "cdk-comprehend-s3olap", false},
		{"valid scoped", "@aws-cdk/core", false},
		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"double slash", "foo//bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"too long", string(make([]byte, 300)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.pkg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCSVFilename(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantErr  bool
	}{
		{"valid", "cdk-comprehend-s3olap.csv", false},
		{"empty", "", true},
		{"path separator", "dir/file.csv", true},
		{"windows separator", "dir\\file.csv", true},
		{"hidden", ".secret.csv", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCSVFilename(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCSVFilename(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
		})
	}
}
