package service

import "github.com/prometheus/client_golang/prometheus"

var (
	MiningClaims = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mining_claims_total",
		Help: "Successful mining claims",
	})
	MiningClaimedAmount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mining_claimed_amount_total",
		Help: "DRX credited by mining claims",
	})
	BoostUpgrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boost_upgrades_total",
			Help: "Boost upgrades by track",
		},
		[]string{"boost"},
	)
	BonusCredits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bonus_credits_total",
			Help: "Welcome, referral, mission and promo credits",
		},
		[]string{"kind"},
	)
	MembershipChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_membership_checks_total",
			Help: "getChatMember checks by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(MiningClaims, MiningClaimedAmount, BoostUpgrades, BonusCredits, MembershipChecks)
}
