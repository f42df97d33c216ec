package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionRangeUnbounded(t *testing.T) {
	r := VersionRange{}
	assert.True(t, r.Unbounded())
	assert.Equal(t, ContainmentInside, r.Contains("1.2.3", ""))
	assert.Equal(t, ContainmentInside, r.Contains("0.0.1", "npm"))
}

func TestVersionRangeStartIncluding(t *testing.T) {
	r := VersionRange{StartIncluding: "1.5.0"}

	assert.Equal(t, ContainmentInside, r.Contains("1.5.0", ""), "boundary version is inside an inclusive start")
	assert.Equal(t, ContainmentInside, r.Contains("2.0.0", ""))
	assert.Equal(t, ContainmentOutside, r.Contains("1.4.9", ""))
}

func TestVersionRangeStartExcluding(t *testing.T) {
	r := VersionRange{StartExcluding: "1.5.0"}

	assert.Equal(t, ContainmentOutside, r.Contains("1.5.0", ""), "boundary version is outside an exclusive start")
	assert.Equal(t, ContainmentInside, r.Contains("1.5.1", ""))
}

func TestVersionRangeEndExcluding(t *testing.T) {
	r := VersionRange{EndExcluding: "2.0.0"}

	assert.Equal(t, ContainmentInside, r.Contains("1.9.9", ""))
	assert.Equal(t, ContainmentOutside, r.Contains("2.0.0", ""), "boundary version is outside an exclusive end")
	assert.Equal(t, ContainmentOutside, r.Contains("2.0.1", ""))
}

func TestVersionRangeEndIncluding(t *testing.T) {
	r := VersionRange{EndIncluding: "2.0.0"}

	assert.Equal(t, ContainmentInside, r.Contains("2.0.0", ""))
	assert.Equal(t, ContainmentOutside, r.Contains("2.0.1", ""))
}

func TestVersionRangeBothSides(t *testing.T) {
	r := VersionRange{StartIncluding: "1.0.0", EndExcluding: "2.0.0"}

	assert.Equal(t, ContainmentOutside, r.Contains("0.9.0", ""))
	assert.Equal(t, ContainmentInside, r.Contains("1.0.0", ""))
	assert.Equal(t, ContainmentInside, r.Contains("1.7.2", ""))
	assert.Equal(t, ContainmentOutside, r.Contains("2.0.0", ""))
}

func TestVersionRangeUnverifiable(t *testing.T) {
	r := VersionRange{EndExcluding: "2.0.0"}

	assert.Equal(t, ContainmentUnverifiable, r.Contains("not-a-version", ""),
		"unparseable versions must never silently match or skip")

	r = VersionRange{EndExcluding: "also-garbage"}
	assert.Equal(t, ContainmentUnverifiable, r.Contains("1.0.0", ""))
}

func TestCompareVersionsSemver(t *testing.T) {
	c, err := CompareVersions("", "1.2.3", "1.2.4")
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = CompareVersions("golang", "v1.10.0", "1.9.0")
	require.NoError(t, err)
	assert.Equal(t, 1, c)

	c, err = CompareVersions("", "go1.22.2", "1.22.2")
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestCompareVersionsNPM(t *testing.T) {
	c, err := CompareVersions("npm", "1.0.0-beta.1", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, -1, c, "prerelease sorts before the release under npm semantics")

	c, err = CompareVersions("node", "2.1.0", "2.1.0")
	require.NoError(t, err)
	assert.Equal(t, 0, c)
}

func TestCompareVersionsPEP440(t *testing.T) {
	c, err := CompareVersions("pypi", "1.0a1", "1.0")
	require.NoError(t, err)
	assert.Equal(t, -1, c)

	c, err = CompareVersions("pip", "1.0.post1", "1.0")
	require.NoError(t, err)
	assert.Equal(t, 1, c)
}

func TestCompareVersionsParseError(t *testing.T) {
	_, err := CompareVersions("", "one.two", "1.2.0")
	require.Error(t, err)
}

func TestCleanVersion(t *testing.T) {
	assert.Equal(t, "1.22.2", CleanVersion("go1.22.2"))
	assert.Equal(t, "v1.2.3", CleanVersion(" v1.2.3 "))
	assert.Equal(t, "1.0.0", CleanVersion("1.0.0"))
}
