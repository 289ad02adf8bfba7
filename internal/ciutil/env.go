package ciutil

// CI provider detection variables.
const (
	EnvCI            = "CI"
	EnvGitHubActions = "GITHUB_ACTIONS"
	EnvGitLabCI      = "GITLAB_CI"
	EnvJenkinsURL    = "JENKINS_URL"
	EnvTravisCI      = "TRAVIS"
	EnvCircleCI      = "CIRCLECI"
	EnvBuildkite     = "BUILDKITE"
)

var providers = []struct {
	env  string
	name string
}{
	{EnvGitHubActions, "github-actions"},
	{EnvGitLabCI, "gitlab-ci"},
	{EnvJenkinsURL, "jenkins"},
	{EnvTravisCI, "travis"},
	{EnvCircleCI, "circleci"},
	{EnvBuildkite, "buildkite"},
	{EnvCI, "generic"},
}

// Provider names the CI system the process runs under, or "" outside CI.
// CI=false and CI=0 are treated as unset.
func Provider(getenv func(string) string) string {
	for _, p := range providers {
		switch getenv(p.env) {
		case "", "false", "0":
			continue
		}
		return p.name
	}
	return ""
}

// IsCI reports whether the process runs under a CI system.
func IsCI(getenv func(string) string) bool {
	return Provider(getenv) != ""
}
