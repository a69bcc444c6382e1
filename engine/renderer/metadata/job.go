package metadata

import "context"

/** Definition for jobs. Returns the result passed to OnComplete. */
type JobStart func(ctx context.Context, params interface{}) (interface{}, error)

/** Definition for completion of a job. */
type JobOnComplete func(result interface{})

/** Definition for failure of a job. */
type JobOnFailure func(err error)

/** @brief Describes a type of job */
type JobType int

const (
	/** @brief A general job that does not have any specific requirements. */
	JOB_TYPE_GENERAL JobType = 0x02
	/** @brief A job that waits on a remote service. */
	JOB_TYPE_REMOTE JobType = 0x04
)

func (t JobType) String() string {
	switch t {
	case JOB_TYPE_GENERAL:
		return "general"
	case JOB_TYPE_REMOTE:
		return "remote"
	}
	return "unknown"
}

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief The type of job. */
	JobType JobType
	/** @brief Used in log lines. */
	Name string
	/** @brief Data to be passed to the entry point upon execution. */
	InputParams interface{}
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when the job successfully completes. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Invoked after either of the above. Optional. */
	OnCompletionCallback func()
}
