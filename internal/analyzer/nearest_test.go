package analyzer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/thebtf/logs-analyzer/internal/config"
	"github.com/thebtf/logs-analyzer/pkg/models"
	"github.com/thebtf/logs-analyzer/pkg/similarity"
)

type NearestSuite struct {
	suite.Suite
	engine *Engine
}

func TestNearestSuite(t *testing.T) {
	suite.Run(t, new(NearestSuite))
}

func (s *NearestSuite) SetupTest() {
	s.engine = New(2, []config.Section{
		section("DISK", "failure", "ERROR disk failure", "full", "ERROR disk full"),
		section("MEMORY", "low", "WARN mem low"),
	})
}

func (s *NearestSuite) TestConfiguredGroupsNeverLinked() {
	s.engine.Assign("totally unrelated", "x.log")
	s.engine.PostAnalyze(PoolAll)

	for _, g := range s.engine.Groups() {
		if !g.Implicit {
			s.False(g.HasNearest(), g.Name)
		}
	}
}

func (s *NearestSuite) TestLinksToClosestConfigured() {
	id := s.engine.Assign("WARN memory low", "x.log")
	s.engine.PostAnalyze(PoolAll)

	g := s.engine.Group(id)
	s.Require().True(g.HasNearest())
	s.Equal(models.GroupID(2), g.Nearest)
	s.Equal(similarity.Distance("WARN memory low", "WARN mem low"), g.NearestDistance)
}

func (s *NearestSuite) TestPoolAllIncludesImplicit() {
	a := s.engine.Assign("INFO cache warmup started", "x.log")
	b := s.engine.Assign("INFO cache warmup finished", "x.log")
	s.engine.PostAnalyze(PoolAll)

	s.Equal(b, s.engine.Group(a).Nearest)
	s.Equal(a, s.engine.Group(b).Nearest)
}

func (s *NearestSuite) TestPoolConfiguredSkipsImplicit() {
	a := s.engine.Assign("INFO cache warmup started", "x.log")
	s.engine.Assign("INFO cache warmup finished", "x.log")
	s.engine.PostAnalyze(PoolConfigured)

	g := s.engine.Group(a)
	s.Require().True(g.HasNearest())
	s.False(s.engine.Group(g.Nearest).Implicit)
}

func (s *NearestSuite) TestTieGoesToEarliest() {
	e := New(0, []config.Section{section("S", "one", "abcX", "two", "abcY")})
	id := e.Assign("abcZ", "x.log")
	e.PostAnalyze(PoolAll)

	s.Equal(models.GroupID(0), e.Group(id).Nearest)
	s.Equal(1, e.Group(id).NearestDistance)
}

func TestPostAnalyze_NoCandidates(t *testing.T) {
	e := New(0, nil)
	id := e.Assign("lonely", "x.log")

	e.PostAnalyze(PoolConfigured)
	assert.False(t, e.Group(id).HasNearest())

	e.PostAnalyze(PoolAll)
	assert.False(t, e.Group(id).HasNearest())
}

func TestPostAnalyze_RerunClearsStaleDistance(t *testing.T) {
	e := New(0, nil)
	first := e.Assign("ERROR disk failure", "x.log")
	second := e.Assign("ERROR disk failurr", "x.log")

	e.PostAnalyze(PoolAll)
	require.Equal(t, second, e.Group(first).Nearest)
	require.Equal(t, 1, e.Group(first).NearestDistance)

	e.PostAnalyze(PoolConfigured)
	assert.False(t, e.Group(first).HasNearest())
	assert.Equal(t, 0, e.Group(first).NearestDistance)
}

func TestPostAnalyze_MatchesBruteForce(t *testing.T) {
	for _, pool := range []NearestPool{PoolAll, PoolConfigured} {
		t.Run(string(pool), func(t *testing.T) {
			e := New(1, []config.Section{section("S", "a", "connect timeout", "b", "disk full", "c", "auth denied")})

			rng := rand.New(rand.NewSource(3))
			alphabet := []rune("abcdefgh ")
			for i := 0; i < 60; i++ {
				n := 3 + rng.Intn(10)
				line := make([]rune, n)
				for j := range line {
					line[j] = alphabet[rng.Intn(len(alphabet))]
				}
				e.Assign(string(line), "r.log")
			}
			e.PostAnalyze(pool)

			for _, g := range e.Groups() {
				if !g.Implicit {
					continue
				}
				want, wantDist := models.NoGroup, 0
				for _, other := range e.Groups() {
					if other.ID == g.ID || (pool == PoolConfigured && other.Implicit) {
						continue
					}
					d := similarity.Distance(g.Sample(), other.Sample())
					if want == models.NoGroup || d < wantDist {
						want, wantDist = other.ID, d
					}
				}
				require.Equal(t, want, g.Nearest, "group %s", g.Name)
				require.Equal(t, wantDist, g.NearestDistance, "group %s", g.Name)
			}
		})
	}
}

func TestParseNearestPool(t *testing.T) {
	tests := []struct {
		in      string
		want    NearestPool
		wantErr bool
	}{
		{in: "", want: PoolAll},
		{in: "all", want: PoolAll},
		{in: "configured", want: PoolConfigured},
		{in: "implicit", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNearestPool(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
