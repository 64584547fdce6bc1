package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSubmissionName(t *testing.T) {
	t.Parallel()

	t.Run("parses a reply artifact", func(t *testing.T) {
		n, err := ParseSubmissionName("3-dour_bicycle-reply.gpg")
		require.NoError(t, err)
		require.Equal(t, 3, n.Sequence)
		require.Equal(t, "dour_bicycle", n.Slug)
		require.Equal(t, "reply.gpg", n.Suffix)
	})

	t.Run("parses a gzipped document artifact", func(t *testing.T) {
		n, err := ParseSubmissionName("12-hallowed_panda-doc.gz.gpg")
		require.NoError(t, err)
		require.Equal(t, 12, n.Sequence)
		require.Equal(t, "doc.gz.gpg", n.Suffix)
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		for _, bad := range []string{"", "reply.gpg", "x-slug-reply.gpg", "0-slug-reply.gpg", "3-slug", "3--reply.gpg"} {
			_, err := ParseSubmissionName(bad)
			require.ErrorIs(t, err, ErrBadFilename, "filename %q", bad)
		}
	})
}

func TestWithSlugPreservesSequenceAndSuffix(t *testing.T) {
	t.Parallel()

	n, err := ParseSubmissionName("7-old_name-doc.gz.gpg")
	require.NoError(t, err)
	require.Equal(t, "7-new_name-doc.gz.gpg", n.WithSlug("new_name"))
}

func TestReplyFilename(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1-dour_bicycle-reply.gpg", ReplyFilename(1, "dour_bicycle"))
}
