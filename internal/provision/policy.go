package provision

import (
	"github.com/bmarinov/storagegrid-provisioner/internal/storagegrid"
)

// buildGroupPolicy constructs the two-statement least-privilege policy for a
// group: bucket-level list/locate actions on the bucket ARN, and object-level
// actions on bucket/path/*.
func buildGroupPolicy(bucket, path string, access []Access) storagegrid.Policies {
	bucketStatement := storagegrid.PolicyStatement{
		Effect:   storagegrid.EffectAllow,
		Action:   []string{"s3:ListBucket", "s3:GetBucketLocation"},
		Resource: []string{"arn:aws:s3:::" + bucket},
	}

	return storagegrid.Policies{
		S3: storagegrid.PolicyS3{
			Statement: []storagegrid.PolicyStatement{
				bucketStatement,
				objectActionStatement(bucket, path, access),
			},
		},
	}
}

func objectActionStatement(bucket, path string, access []Access) storagegrid.PolicyStatement {
	statement := storagegrid.PolicyStatement{
		Effect:   storagegrid.EffectAllow,
		Resource: []string{"arn:aws:s3:::" + bucket + "/" + path + "/*"},
	}

	if len(access) == 0 {
		statement.Action = []string{"s3:PutObject", "s3:GetObject", "s3:DeleteObject"}
		return statement
	}

	// Grants map in caller order; duplicates are passed through as-is.
	for _, a := range access {
		switch a {
		case AccessRead:
			statement.Action = append(statement.Action, "s3:GetObject")
		case AccessWrite:
			statement.Action = append(statement.Action, "s3:PutObject")
		case AccessDelete:
			statement.Action = append(statement.Action, "s3:DeleteObject")
		}
	}
	return statement
}
