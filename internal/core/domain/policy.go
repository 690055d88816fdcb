package domain

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const PolicyVersion = "2012-10-17"

type Statement struct {
	Sid       string   `json:"Sid,omitempty"`
	Effect    string   `json:"Effect"`
	Principal any      `json:"Principal,omitempty"`
	Action    []string `json:"Action"`
	Resource  []string `json:"Resource"`
}

type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

var policyJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// JSON renders the document in the form the IAM and S3 APIs accept.
func (p PolicyDocument) JSON() (string, error) {
	if p.Version == "" {
		p.Version = PolicyVersion
	}
	b, err := policyJSON.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal policy document: %w", err)
	}
	return string(b), nil
}

func ParsePolicyDocument(raw string) (PolicyDocument, error) {
	var doc PolicyDocument
	if err := policyJSON.UnmarshalFromString(raw, &doc); err != nil {
		return PolicyDocument{}, fmt.Errorf("parse policy document: %w", err)
	}
	return doc, nil
}

func bucketARN(bucket string) string { return "arn:aws:s3:::" + bucket }

// DefaultBucketReadPolicy grants anonymous read of every object in bucket.
func DefaultBucketReadPolicy(bucket string) PolicyDocument {
	return PolicyDocument{
		Version: PolicyVersion,
		Statement: []Statement{{
			Sid:       "PublicReadGetObject",
			Effect:    "Allow",
			Principal: "*",
			Action:    []string{"s3:GetObject"},
			Resource:  []string{bucketARN(bucket) + "/*"},
		}},
	}
}

// DefaultSiteAdminPolicy lets a deployer manage site content and invalidate the
// account's distributions.
func DefaultSiteAdminPolicy(accountID, webBucket, logBucket string) PolicyDocument {
	return PolicyDocument{
		Version: PolicyVersion,
		Statement: []Statement{
			{
				Sid:    "SiteContent",
				Effect: "Allow",
				Action: []string{"s3:*"},
				Resource: []string{
					bucketARN(webBucket), bucketARN(webBucket) + "/*",
					bucketARN(logBucket), bucketARN(logBucket) + "/*",
				},
			},
			{
				Sid:      "CDNInvalidation",
				Effect:   "Allow",
				Action:   []string{"cloudfront:CreateInvalidation", "cloudfront:GetDistribution", "cloudfront:ListDistributions"},
				Resource: []string{fmt.Sprintf("arn:aws:cloudfront::%s:distribution/*", accountID)},
			},
		},
	}
}

// PolicyName builds the default admin policy name, e.g. example-com-admin.
func PolicyName(domainName string) string {
	return strings.ReplaceAll(domainName, ".", "-") + "-admin"
}
