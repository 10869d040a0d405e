package s3

type Bucket struct {
	Name   string
	Region string
}
