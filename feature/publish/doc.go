// Package publish mirrors generated fixture files to S3 compatible storage.
//
// Each fixture file is uploaded as <prefix>/<file name> and objects under
// the prefix without a local file are removed, so the bucket always holds
// the fixtures of the last build. Publisher.AfterBuild can be registered
// with builder.WithAfterBuild to publish after every committed build.
package publish
